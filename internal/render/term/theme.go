package term

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the palette the painter uses for non-prose nodes.
type Theme struct {
	Primary   lipgloss.Color // accents, citation badges
	Secondary lipgloss.Color // headers, borders
	Muted     lipgloss.Color // reasoning text, tooltips
	Text      lipgloss.Color // primary text
	Warning   lipgloss.Color // code spans, incomplete affordances
}

// DefaultTheme returns the default palette (gruvbox).
func DefaultTheme() *Theme {
	return &Theme{
		Primary:   lipgloss.Color("#b8bb26"), // gruvbox green
		Secondary: lipgloss.Color("#83a598"), // gruvbox aqua
		Muted:     lipgloss.Color("#928374"), // gruvbox gray
		Text:      lipgloss.Color("#ebdbb2"), // gruvbox foreground
		Warning:   lipgloss.Color("#fabd2f"), // gruvbox yellow
	}
}

// Override replaces palette entries with any non-empty values,
// typically from config.
func (t *Theme) Override(primary, secondary, muted, text, warning string) {
	if primary != "" {
		t.Primary = lipgloss.Color(primary)
	}
	if secondary != "" {
		t.Secondary = lipgloss.Color(secondary)
	}
	if muted != "" {
		t.Muted = lipgloss.Color(muted)
	}
	if text != "" {
		t.Text = lipgloss.Color(text)
	}
	if warning != "" {
		t.Warning = lipgloss.Color(warning)
	}
}

func (t *Theme) badgeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
}

func (t *Theme) semanticBadgeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
}

func (t *Theme) reasoningStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.Muted).
		Italic(true).
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(t.Muted).
		PaddingLeft(1)
}

func (t *Theme) widgetFrameStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Secondary).
		Padding(0, 1)
}

func (t *Theme) widgetTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
}

func (t *Theme) incompleteTitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
}

func (t *Theme) boldStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

func (t *Theme) italicStyle() lipgloss.Style {
	return lipgloss.NewStyle().Italic(true)
}

func (t *Theme) strikeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Strikethrough(true)
}

func (t *Theme) inlineCodeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

func (t *Theme) linkHrefStyle() lipgloss.Style {
	return lipgloss.NewStyle().Faint(true)
}

func (t *Theme) headingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
}

func (t *Theme) mathStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Primary).Italic(true)
}
