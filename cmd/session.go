package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/assistant-console/internal/domain"
	"github.com/spf13/cobra"
)

// sessionFile is implemented by stores that persist tokens to disk.
type sessionFile interface {
	CreatedAt(ctx context.Context, profile string) (time.Time, error)
	Path() string
}

func newSessionCmd(loader *appLoader) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the session token of a profile",
	}

	sessionCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the session token of the current profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := loader.load(cmd)
				if err != nil {
					return err
				}

				profile := app.sessions.Profile()
				token, err := app.sessionStore.Get(cmd.Context(), profile)
				if errors.Is(err, domain.ErrSessionNotFound) {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "profile: %s\nsession: none\n", profile)
					return err
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if _, err := fmt.Fprintf(out, "profile: %s\nsession: %s\n", profile, token); err != nil {
					return err
				}

				file, ok := app.sessionStore.(sessionFile)
				if !ok {
					return nil
				}
				createdAt, err := file.CreatedAt(cmd.Context(), profile)
				if err != nil {
					return err
				}
				if !createdAt.IsZero() {
					if _, err := fmt.Fprintf(out, "created: %s\n", createdAt.Format(time.RFC3339)); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintf(out, "file: %s\n", file.Path())
				return err
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the session token; the next question starts a new session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, err := loader.load(cmd)
				if err != nil {
					return err
				}

				if err := app.sessions.Reset(cmd.Context()); err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "session reset for profile %s\n", app.sessions.Profile())
				return err
			},
		},
	)

	return sessionCmd
}
