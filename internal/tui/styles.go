package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles of the chat screen.
type Styles struct {
	Header     lipgloss.Style
	Tagline    lipgloss.Style
	Disclaimer lipgloss.Style
	UserLabel  lipgloss.Style
	BotLabel   lipgloss.Style
	UserBody   lipgloss.Style
	BotBody    lipgloss.Style
	Time       lipgloss.Style
	Typing     lipgloss.Style
	Spinner    lipgloss.Style
	Prompt     lipgloss.Style
	Hint       lipgloss.Style
	Error      lipgloss.Style
}

// DefaultStyles returns the blue-on-white palette of the web page adapted to terminals.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	muted := lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	warn := lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FCD34D"}

	return Styles{
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(primary).Padding(0, 1),
		Tagline:    lipgloss.NewStyle().Foreground(muted).Italic(true),
		Disclaimer: lipgloss.NewStyle().Foreground(warn).Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(warn),
		UserLabel:  lipgloss.NewStyle().Bold(true).Foreground(primary),
		BotLabel:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#5EEAD4"}),
		UserBody:   lipgloss.NewStyle().PaddingLeft(2),
		BotBody:    lipgloss.NewStyle(),
		Time:       lipgloss.NewStyle().Foreground(muted),
		Typing:     lipgloss.NewStyle().Foreground(muted).Italic(true),
		Spinner:    lipgloss.NewStyle().Foreground(primary),
		Prompt:     lipgloss.NewStyle().Foreground(primary),
		Hint:       lipgloss.NewStyle().Foreground(muted).Faint(true),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")),
	}
}
