// Command feedbackctl is a terminal client for the feedback API. It keeps
// its own session in a local file so a login survives between invocations.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
