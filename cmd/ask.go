package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	chatrender "github.com/bnema/assistant-console/internal/adapters/render/chat"
	"github.com/bnema/assistant-console/internal/application"
	"github.com/bnema/assistant-console/internal/domain"
	"github.com/spf13/cobra"
)

type askOptions struct {
	deepReasoning bool
	promote       bool
	asJSON        bool
}

type askOutput struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	MessageID    string   `json:"msgId,omitempty"`
	Phase        string   `json:"phase"`
	ThoughtChain []string `json:"thoughtChain,omitempty"`
	Reasoning    string   `json:"reasoning,omitempty"`
	Action       string   `json:"action"`
	FactMemory   string   `json:"factMemory,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func newAskCmd(loader *appLoader) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the streamed answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}
			return runAsk(cmd, app, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.deepReasoning, "deep-reasoning", false, "Ask the backend to stream its reasoning")
	cmd.Flags().BoolVar(&opts.promote, "promote", false, "Save the answer as procedural memory once it completes")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Render JSON output")

	return cmd
}

func runAsk(cmd *cobra.Command, app *app, question string, opts askOptions) error {
	ctx := cmd.Context()

	activity := make(chan struct{}, 1)
	app.chat.SetObserver(func(application.TurnSnapshot) {
		select {
		case activity <- struct{}{}:
		default:
		}
	})
	defer app.chat.SetObserver(nil)

	if err := app.chat.StartTurn(ctx, application.StartTurnCommand{
		Question:      question,
		DeepReasoning: opts.deepReasoning,
	}); err != nil {
		return err
	}

	if !opts.asJSON {
		if err := runAskProgress(ctx, cmd.ErrOrStderr(), activity, app.chat.Snapshot); err != nil {
			app.chat.Cancel()
			return err
		}
	}

	snapshot, turnErr := app.chat.Wait(ctx)
	if ctx.Err() != nil {
		app.chat.Cancel()
		return ctx.Err()
	}

	var fact string
	if turnErr == nil && opts.promote {
		result, err := app.actions.Invoke(ctx, application.CurrentTurn())
		if err != nil {
			return fmt.Errorf("save answer as memory: %w", err)
		}
		fact = result.FactMemory
		snapshot = app.chat.Snapshot()
	}

	if opts.asJSON {
		if err := writeAskJSON(cmd, snapshot, fact); err != nil {
			return err
		}
		return turnErr
	}

	rendered := chatrender.View(snapshot, chatrender.RenderOptions{MessageIDs: true})
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
		return err
	}

	if errors.Is(turnErr, domain.ErrTurnCancelled) {
		return nil
	}
	return turnErr
}

func writeAskJSON(cmd *cobra.Command, snapshot application.TurnSnapshot, fact string) error {
	out := askOutput{
		Question:     snapshot.Question,
		Answer:       snapshot.Answer.AnswerText,
		MessageID:    string(snapshot.Answer.MessageID),
		Phase:        string(snapshot.Phase),
		ThoughtChain: chatrender.ThoughtChain(snapshot.Answer, snapshot.ThoughtChainVisible),
		Reasoning:    snapshot.Answer.ReasoningText,
		Action:       snapshot.Action.String(),
		FactMemory:   fact,
	}
	if snapshot.Err != nil {
		out.Error = snapshot.Err.Error()
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
