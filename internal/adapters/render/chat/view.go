package chat

import (
	"fmt"
	"strings"

	"github.com/bnema/assistant-console/internal/application"
	"github.com/bnema/assistant-console/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	// Transcript includes the earlier turns above the current answer.
	Transcript bool
	// MessageIDs prints the id next to each answer so it can be promoted later.
	MessageIDs bool
	Width      int
}

// View renders a snapshot without running a bubbletea program. The chat
// screen calls it on every update.
func View(snapshot application.TurnSnapshot, opts RenderOptions) string {
	return renderView(snapshot, opts, newStyles())
}

// ActionLabel is the affordance shown for a memory action state.
func ActionLabel(state domain.ActionState) string {
	switch state {
	case domain.ActionInFlight:
		return "[saving...]"
	case domain.ActionCompleted:
		return "[saved]"
	default:
		return "[save as memory]"
	}
}

// ThoughtChain lists what the backend did to produce the answer. It is empty
// until the first well-formed event arrived.
func ThoughtChain(state domain.StreamState, visible bool) []string {
	if !visible {
		return nil
	}

	var items []string
	if state.TaskCount > 0 {
		items = append(items, withDetail(plural(state.TaskCount, "data query task", "data query tasks"), state.TaskNames))
	}
	if state.RetrievedDocCount > 0 {
		items = append(items, withDetail(plural(state.RetrievedDocCount, "retrieved document", "retrieved documents"), docDetail(state)))
	}
	if state.MemoryCount > 0 {
		items = append(items, withDetail(plural(state.MemoryCount, "related memory", "related memories"), state.MemoryContent))
	}
	if state.ReasoningText != "" {
		items = append(items, "deep reasoning")
	}
	if state.SavedMemoryContent != "" {
		items = append(items, withDetail("saved memory", state.SavedMemoryContent))
	}

	return items
}

func renderView(snapshot application.TurnSnapshot, opts RenderOptions, s styles) string {
	var blocks []string

	if opts.Transcript {
		for _, turn := range snapshot.Transcript {
			blocks = append(blocks, renderTurn(turn, snapshot.MessageAction(turn.MessageID), opts, s))
		}
	}

	if current := renderCurrent(snapshot, opts, s); current != "" {
		blocks = append(blocks, current)
	}

	for i := 1; i < len(blocks); i++ {
		blocks[i] = s.section.Render(blocks[i])
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderTurn(turn domain.Turn, action application.MessageAction, opts RenderOptions, s styles) string {
	if turn.IsUser() {
		return lipgloss.JoinVertical(lipgloss.Left, s.user.Render("you"), wrap(s.content, opts.Width).Render(turn.Content))
	}

	header := s.assistant.Render("assistant")
	if opts.MessageIDs && turn.MessageID != "" {
		header += " " + s.messageID.Render(string(turn.MessageID))
	}
	lines := []string{header, wrap(s.content, opts.Width).Render(turn.Content)}

	if turn.MessageID != "" {
		lines = append(lines, renderAction(action, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAction(action application.MessageAction, opts RenderOptions, s styles) string {
	label := actionStyle(action.State, s).Render(ActionLabel(action.State))
	if action.State != domain.ActionCompleted || action.FactMemory == "" {
		return label
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, wrap(s.chainItem, opts.Width).Render("memory: "+action.FactMemory))
}

func renderCurrent(snapshot application.TurnSnapshot, opts RenderOptions, s styles) string {
	if snapshot.Phase == application.PhaseIdle {
		return ""
	}

	answer := snapshot.Answer
	header := s.assistant.Render("assistant")
	if opts.MessageIDs && answer.MessageID != "" {
		header += " " + s.messageID.Render(string(answer.MessageID))
	}
	lines := []string{header}

	if chain := ThoughtChain(answer, snapshot.ThoughtChainVisible); len(chain) > 0 {
		lines = append(lines, s.chainTitle.Render("thought chain"))
		for _, item := range chain {
			lines = append(lines, s.chainItem.Render("  • "+item))
		}
		if answer.ReasoningText != "" {
			lines = append(lines, wrap(s.reasoning, opts.Width).Render(answer.ReasoningText))
		}
	}

	switch {
	case snapshot.Loading():
		lines = append(lines, s.loading.Render("thinking..."))
	case answer.AnswerText != "":
		lines = append(lines, wrap(s.content, opts.Width).Render(answer.AnswerText))
	}

	if snapshot.Phase == application.PhaseFailed && snapshot.Err != nil {
		lines = append(lines, s.errorText.Render("error: "+snapshot.Err.Error()))
	}

	if snapshot.Phase == application.PhaseCompleted && answer.MessageID != "" {
		action := snapshot.MessageAction(answer.MessageID)
		action.State = snapshot.Action
		lines = append(lines, renderAction(action, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func actionStyle(state domain.ActionState, s styles) lipgloss.Style {
	switch state {
	case domain.ActionInFlight:
		return s.actionBusy
	case domain.ActionCompleted:
		return s.actionDone
	default:
		return s.action
	}
}

func docDetail(state domain.StreamState) string {
	if state.RetrievedDocContent != "" {
		return state.RetrievedDocContent
	}
	return strings.Join(state.RetrievedDocNames, ", ")
}

func withDetail(label string, detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return label
	}
	return label + ": " + detail
}

func plural(count int, singular string, pluralForm string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", count, pluralForm)
}

func wrap(style lipgloss.Style, width int) lipgloss.Style {
	if width <= 0 {
		return style
	}
	return style.Width(width)
}
