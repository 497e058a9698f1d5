package chat

import "github.com/charmbracelet/lipgloss"

type styles struct {
	user        lipgloss.Style
	assistant   lipgloss.Style
	content     lipgloss.Style
	chainTitle  lipgloss.Style
	chainItem   lipgloss.Style
	chainDetail lipgloss.Style
	reasoning   lipgloss.Style
	loading     lipgloss.Style
	action      lipgloss.Style
	actionBusy  lipgloss.Style
	actionDone  lipgloss.Style
	messageID   lipgloss.Style
	errorText   lipgloss.Style
	section     lipgloss.Style
}

func newStyles() styles {
	return styles{
		user:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		assistant:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		content:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		chainTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		chainItem:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		chainDetail: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		reasoning:   lipgloss.NewStyle().Faint(true).Italic(true),
		loading:     lipgloss.NewStyle().Faint(true),
		action:      lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		actionBusy:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		actionDone:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		messageID:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		errorText:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:     lipgloss.NewStyle().MarginTop(1),
	}
}
