package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	chatrender "github.com/bnema/assistant-console/internal/adapters/render/chat"
	"github.com/bnema/assistant-console/internal/application"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type askActivityMsg struct{}

type askAbortedMsg struct {
	err error
}

// askProgressModel keeps a spinner on stderr while ask waits for the first
// answer token. It names the latest thought chain step as the backend
// reports it.
type askProgressModel struct {
	ctx      context.Context
	spinner  spinner.Model
	activity <-chan struct{}
	read     func() application.TurnSnapshot
	snapshot application.TurnSnapshot
	err      error
}

func newAskProgressModel(ctx context.Context, activity <-chan struct{}, read func() application.TurnSnapshot) askProgressModel {
	return askProgressModel{
		ctx: ctx,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		activity: activity,
		read:     read,
		snapshot: read(),
	}
}

func (m askProgressModel) Init() tea.Cmd {
	if m.settled() {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.waitActivity())
}

func (m askProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case askActivityMsg:
		m.snapshot = m.read()
		if m.settled() {
			return m, tea.Quit
		}
		return m, m.waitActivity()
	case askAbortedMsg:
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m askProgressModel) View() string {
	if m.settled() {
		return ""
	}

	label := "Waiting for the assistant..."
	if chain := chatrender.ThoughtChain(m.snapshot.Answer, m.snapshot.ThoughtChainVisible); len(chain) > 0 {
		step, _, _ := strings.Cut(chain[len(chain)-1], ":")
		label = fmt.Sprintf("%s (%s)", label, step)
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), label)
}

// settled is true once the turn left Connecting or the wait was aborted.
func (m askProgressModel) settled() bool {
	return m.err != nil || m.snapshot.Phase != application.PhaseConnecting
}

func (m askProgressModel) waitActivity() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.activity:
			return askActivityMsg{}
		case <-m.ctx.Done():
			return askAbortedMsg{err: m.ctx.Err()}
		}
	}
}

func runAskProgress(ctx context.Context, output io.Writer, activity <-chan struct{}, read func() application.TurnSnapshot) error {
	p := tea.NewProgram(
		newAskProgressModel(ctx, activity, read),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(askProgressModel)
	if !ok {
		return fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return result.err
}
