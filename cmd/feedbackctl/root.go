package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deadwick/feedback-service/internal/client"
	"github.com/deadwick/feedback-service/internal/core/authz"
	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/session"
	"github.com/deadwick/feedback-service/internal/infrastructure/sessionfile"
	"github.com/deadwick/feedback-service/pkg/logger"
)

// app is one client instance: an API client plus the session it acts as.
type app struct {
	api     *client.Client
	session *session.Store
	file    *sessionfile.FilePersister
	out     io.Writer
	log     zerolog.Logger
}

func newApp(cfg *cliConfig, out io.Writer) (*app, error) {
	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Output:  os.Stderr,
		Service: "feedbackctl",
	})

	file, err := sessionfile.NewFilePersister(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	a := &app{file: file, out: out, log: log}
	a.api = client.New(cfg.Server, nil, a.token)
	a.session = session.New(a.api, file, log)
	a.session.Restore(context.Background())
	return a, nil
}

func (a *app) token() string {
	if identity := a.session.Identity(); identity != nil {
		return identity.Token
	}
	return ""
}

// require runs the local gate before any request is sent.
func (a *app) require(action authz.Action) error {
	current := a.session.Current()
	if authz.Allowed(current, action) {
		return nil
	}
	if !current.Authenticated() {
		return fmt.Errorf("%w: log in first", domain.ErrAuthorization)
	}
	return fmt.Errorf("%w: %s requires an admin account", domain.ErrAuthorization, action)
}

func newRootCmd() *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "feedbackctl",
		Short:         "Submit and moderate feedback from the terminal",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if server, _ := cmd.Flags().GetString("server"); server != "" {
				cfg.Server = server
			}
			a, err = newApp(cfg, cmd.OutOrStdout())
			return err
		},
	}
	root.PersistentFlags().String("server", "", "API base URL (overrides FEEDBACKCTL_SERVER)")

	get := func() *app { return a }
	root.AddCommand(
		newLoginCmd(get),
		newRegisterCmd(get),
		newLogoutCmd(get),
		newWhoamiCmd(get),
		newSubmitCmd(get),
		newListCmd(get),
		newMineCmd(get),
		newDeleteCmd(get),
	)
	return root
}
