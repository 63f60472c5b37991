package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#D97706")
	mutedColor   = lipgloss.Color("#888888")
	hotColor     = lipgloss.Color("#DC2626")
	okColor      = lipgloss.Color("#16A34A")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(hotColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	meterOK  = lipgloss.NewStyle().Foreground(okColor)
	meterHot = lipgloss.NewStyle().Foreground(hotColor)
)

// PrintError prints an error message to stderr.
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintChain lists the effect descriptions under a title.
func PrintChain(w io.Writer, title string, effects []string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
	if len(effects) == 0 {
		fmt.Fprintf(w, "  %s\n", KeyStyle.Render("(bypass)"))
	}
	for i, e := range effects {
		fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(fmt.Sprintf("%d:", i)), e)
	}
}

const barWidth = 30

// LevelBar renders a dBFS level between floor and 0 as a horizontal bar.
// Levels within 3 dB of full scale are drawn hot.
func LevelBar(db, floor float64) string {
	frac := 1 - db/floor
	frac = max(0, min(1, frac))
	n := int(frac*barWidth + 0.5)
	bar := strings.Repeat("#", n) + strings.Repeat(".", barWidth-n)
	if db > -3 {
		return meterHot.Render(bar)
	}
	return meterOK.Render(bar)
}

// FormatLevels renders one meter line.
func FormatLevels(peakDB, rmsDB, freq float64) string {
	return fmt.Sprintf("%s %s %s %s %s",
		KeyStyle.Render("peak"), LevelBar(peakDB, -60),
		KeyStyle.Render(fmt.Sprintf("%6.1f dB  rms %6.1f dB", peakDB, rmsDB)),
		KeyStyle.Render("tone"), fmt.Sprintf("%7.1f Hz", freq))
}
