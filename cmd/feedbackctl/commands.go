package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deadwick/feedback-service/internal/client"
	"github.com/deadwick/feedback-service/internal/core/authz"
	"github.com/deadwick/feedback-service/internal/core/domain"
)

func newLoginCmd(app func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			identity, err := a.session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "logged in as %s (%s)\n", identity.Email, identity.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(app func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			identity, err := a.api.Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "registered %s as %q; run login to start a session\n", identity.Email, identity.DisplayName)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if a.session.Current().Authenticated() {
				// The local session is cleared even when the server side is already gone.
				if err := a.api.Logout(cmd.Context()); err != nil && !errors.Is(err, domain.ErrAuthentication) {
					a.log.Warn().Err(err).Msg("server logout failed")
				}
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app func() *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			identity := a.session.Identity()
			if identity == nil {
				fmt.Fprintf(a.out, "not logged in (session file %s)\n", a.file.Path())
				return nil
			}
			if remote {
				var err error
				if identity, err = a.api.Me(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "%s <%s> role=%s admin=%t\n", identity.DisplayName, identity.Email, identity.Role, identity.IsAdmin())
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of the local session")
	return cmd
}

func newSubmitCmd(app func() *app) *cobra.Command {
	var (
		message   string
		rating    int
		imagePath string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit feedback",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.require(authz.SubmitFeedback); err != nil {
				return err
			}

			var image *client.Image
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				image = &client.Image{Name: imagePath, Data: data}
			}

			rec, err := a.api.Submit(cmd.Context(), message, rating, image)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "submitted %s\n", rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "feedback text")
	cmd.Flags().IntVarP(&rating, "rating", "r", domain.DefaultRating, "rating from 1 to 5")
	cmd.Flags().StringVar(&imagePath, "image", "", "optional image file")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newListCmd(app func() *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List public feedback, or every entry with --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			action := authz.ViewPublic
			fetch := a.api.ListPublic
			if all {
				action, fetch = authz.ListAllFeedback, a.api.ListAll
			}
			if err := a.require(action); err != nil {
				return err
			}
			records, err := fetch(cmd.Context())
			if err != nil {
				return err
			}
			return printRecords(a, records, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "admin management list")
	return cmd
}

func newMineCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own submissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.require(authz.ViewOwnSubmissions); err != nil {
				return err
			}
			records, err := a.api.ListOwn(cmd.Context())
			if err != nil {
				return err
			}
			return printRecords(a, records, false)
		},
	}
}

func newDeleteCmd(app func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a feedback entry (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.require(authz.DeleteFeedback); err != nil {
				return err
			}
			if err := a.api.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", args[0])
			return nil
		},
	}
}

func printRecords(a *app, records []domain.FeedbackRecord, withIDs bool) error {
	if len(records) == 0 {
		fmt.Fprintln(a.out, "no feedback yet")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, r := range records {
		line := fmt.Sprintf("%s\t%s\t%d/5\t%s", r.CreatedAt.Format("2006-01-02 15:04"), r.DisplayName, r.Rating, r.Message)
		if withIDs {
			line = r.ID + "\t" + line
		}
		if r.HasImage() {
			line += "\t" + r.ImageRef
		}
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}
