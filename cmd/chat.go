package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chatrender "github.com/bnema/assistant-console/internal/adapters/render/chat"
	"github.com/bnema/assistant-console/internal/application"
	"github.com/bnema/assistant-console/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	chatInputHeight  = 1
	chatStatusHeight = 1
	chatDefaultWidth = 80
)

type chatCommandKind int

const (
	chatAsk chatCommandKind = iota
	chatSave
	chatQuit
	chatNone
)

type chatCommand struct {
	kind chatCommandKind
	text string
}

// parseChatInput turns one input line into a chat command. "/save" targets
// the current answer; "/save <id>" a historical one.
func parseChatInput(line string) chatCommand {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return chatCommand{kind: chatNone}
	case line == "/quit" || line == "/exit":
		return chatCommand{kind: chatQuit}
	case line == "/save":
		return chatCommand{kind: chatSave}
	case strings.HasPrefix(line, "/save "):
		return chatCommand{kind: chatSave, text: strings.TrimSpace(strings.TrimPrefix(line, "/save "))}
	default:
		return chatCommand{kind: chatAsk, text: line}
	}
}

type chatActivityMsg struct{}

type chatStatusMsg struct {
	text string
	err  error
}

// chatModel is the interactive chat screen. The service notifies it through
// a one-slot channel; the model always reads the latest snapshot itself.
type chatModel struct {
	ctx      context.Context
	chat     *application.ChatService
	actions  *application.MemoryActions
	activity chan struct{}
	deep     bool
	welcome  bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	snapshot application.TurnSnapshot
	status   string
	width    int
	ready    bool
}

func newChatModel(ctx context.Context, chat *application.ChatService, actions *application.MemoryActions, deep bool, welcome bool) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask a question, /save [msgId], /quit"
	input.Prompt = "> "
	input.Focus()

	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	m := chatModel{
		ctx:      ctx,
		chat:     chat,
		actions:  actions,
		activity: make(chan struct{}, 1),
		deep:     deep,
		welcome:  welcome,
		input:    input,
		viewport: viewport.New(chatDefaultWidth, 20),
		spinner:  s,
		snapshot: chat.Snapshot(),
		width:    chatDefaultWidth,
	}
	chat.SetObserver(m.notify)

	return m
}

// notify runs on the stream's reader goroutine, so it only flags that
// something changed and never waits for the screen.
func (m chatModel) notify(application.TurnSnapshot) {
	select {
	case m.activity <- struct{}{}:
	default:
	}
}

func (m chatModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.activity:
			return chatActivityMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, m.waitForActivity()}
	if m.welcome {
		cmds = append(cmds, m.fetchWelcome())
	}
	return tea.Batch(cmds...)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chatInputHeight-chatStatusHeight, 1)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		m.ready = true
		m.refresh()
		return m, nil
	case chatActivityMsg:
		m.refresh()
		return m, m.waitForActivity()
	case chatStatusMsg:
		m.status = msg.text
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		}
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.chat.Snapshot().Phase.Active() {
				m.chat.Cancel()
				m.status = "cancelled"
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	command := parseChatInput(m.input.Value())
	m.input.Reset()

	switch command.kind {
	case chatQuit:
		return m, tea.Quit
	case chatSave:
		target := application.CurrentTurn()
		if command.text != "" {
			target = application.Message(command.text)
		}
		return m, m.save(target)
	case chatAsk:
		m.status = ""
		return m, m.ask(command.text)
	default:
		return m, nil
	}
}

func (m chatModel) ask(question string) tea.Cmd {
	return func() tea.Msg {
		err := m.chat.StartTurn(m.ctx, application.StartTurnCommand{Question: question, DeepReasoning: m.deep})
		if err != nil {
			return chatStatusMsg{err: err}
		}
		return nil
	}
}

func (m chatModel) save(target application.ActionTarget) tea.Cmd {
	return func() tea.Msg {
		result, err := m.actions.Invoke(m.ctx, target)
		switch {
		case errors.Is(err, domain.ErrTurnStillStreaming):
			return chatStatusMsg{text: "wait for the answer to finish before saving it"}
		case errors.Is(err, domain.ErrMissingMessageID):
			return chatStatusMsg{text: "this answer has no message id and cannot be saved"}
		case err != nil:
			return chatStatusMsg{err: err}
		case !result.Invoked:
			return chatStatusMsg{text: fmt.Sprintf("%s is already %s", result.MessageID, chatrender.ActionLabel(result.State))}
		case result.FactMemory != "":
			return chatStatusMsg{text: "saved memory: " + result.FactMemory}
		default:
			return chatStatusMsg{text: fmt.Sprintf("saved %s", result.MessageID)}
		}
	}
}

func (m chatModel) fetchWelcome() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.chat.Welcome(m.ctx); err != nil {
			return chatStatusMsg{err: err}
		}
		return nil
	}
}

func (m *chatModel) refresh() {
	snapshot := m.chat.Snapshot()
	if snapshot.Revision < m.snapshot.Revision {
		return
	}
	m.snapshot = snapshot

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(chatrender.View(snapshot, chatrender.RenderOptions{
		Transcript: true,
		MessageIDs: true,
		Width:      m.width,
	}))
	if atBottom || snapshot.Phase.Active() {
		m.viewport.GotoBottom()
	}
}

func (m chatModel) View() string {
	status := m.status
	if m.snapshot.Loading() {
		status = m.spinner.View() + " waiting for the assistant..."
	} else if m.snapshot.Phase == application.PhaseStreaming {
		status = m.spinner.View() + " streaming"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(status),
		m.input.View(),
	)
}

func newChatCmd(loader *appLoader) *cobra.Command {
	var deep bool
	var noWelcome bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			model := newChatModel(ctx, app.chat, app.actions, deep, !noWelcome)
			defer app.chat.SetObserver(nil)

			p := tea.NewProgram(model,
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("run chat screen: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deep, "deep-reasoning", false, "Ask the backend to stream its reasoning")
	cmd.Flags().BoolVar(&noWelcome, "no-welcome", false, "Skip the backend greeting")

	return cmd
}
