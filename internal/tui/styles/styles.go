package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber      = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
)

// Accent is the theme's highlight color, amber by default
var Accent = Amber

// ApplyTheme switches the accent color by theme name. Unknown names keep
// the default. Call before the program starts rendering.
func ApplyTheme(name string) {
	switch name {
	case "blue":
		Accent = Blue
	case "green":
		Accent = Green
	default:
		Accent = Amber
	}

	CardBorder = CardBorder.BorderForeground(Accent)
	AccentStyle = AccentStyle.Foreground(Accent)
	HighlightStyle = HighlightStyle.Background(Accent)
	ModalStyle = ModalStyle.BorderForeground(Accent)
}

// Card chrome
var (
	CardBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(1, 2)

	GhostCardBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(1, 2)
)

// Text styles
var (
	CaptionStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	MetaStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	LoadedStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Amber)
)

// Media state indicators
const (
	LoadedChar   = "▶"
	UnloadedChar = "○"
	ErrorChar    = "✗"
)

// Footer
var (
	FooterStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	StatusErrStyle = lipgloss.NewStyle().
			Foreground(Red)
)

// Search modal
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)

	ResultStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	SelectedResultStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)
)
