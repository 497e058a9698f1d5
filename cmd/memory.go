package cmd

import (
	"encoding/json"
	"fmt"

	chatrender "github.com/bnema/assistant-console/internal/adapters/render/chat"
	"github.com/spf13/cobra"
)

type promotionOutput struct {
	MessageID  string `json:"msgId"`
	State      string `json:"state"`
	FactMemory string `json:"factMemory,omitempty"`
	Error      string `json:"error,omitempty"`
}

func newMemoryCmd(loader *appLoader) *cobra.Command {
	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage procedural memory",
	}

	memoryCmd.AddCommand(newMemoryPromoteCmd(loader))

	return memoryCmd
}

func newMemoryPromoteCmd(loader *appLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "promote <msgId>...",
		Short: "Save earlier answers as procedural memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}

			outcomes, promoteErr := app.actions.PromoteMany(cmd.Context(), args)

			if asJSON {
				out := make([]promotionOutput, 0, len(outcomes))
				for _, outcome := range outcomes {
					entry := promotionOutput{
						MessageID:  string(outcome.MessageID),
						State:      outcome.State.String(),
						FactMemory: outcome.FactMemory,
					}
					if outcome.Err != nil {
						entry.Error = outcome.Err.Error()
					}
					out = append(out, entry)
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
				return promoteErr
			}

			for _, outcome := range outcomes {
				line := fmt.Sprintf("%s %s", outcome.MessageID, chatrender.ActionLabel(outcome.State))
				switch {
				case outcome.Err != nil:
					line += " " + outcome.Err.Error()
				case outcome.FactMemory != "":
					line += " " + outcome.FactMemory
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}

			return promoteErr
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
