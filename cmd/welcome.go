package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWelcomeCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "welcome",
		Short: "Print the assistant greeting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}

			text, err := app.chat.Welcome(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}
