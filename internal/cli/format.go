// Package cli provides shared formatting helpers for CLI output.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI color constants.
const (
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Red    = "\033[31m"
	Cyan   = "\033[36m"
	Dim    = "\033[2m"
	Bold   = "\033[1m"
	Reset  = "\033[0m"
)

// Box width is the inner content width (between the border characters).
const boxWidth = 44

// Margin is the left indent for all branded output.
const margin = "  "

// ShortenHome replaces $HOME prefix with ~.
func ShortenHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

// FormatNumber adds comma separators (1234 -> "1,234").
func FormatNumber(n int) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return FormatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

// Header prints a small heavy-border box with a title.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w)
	heavyTop := margin + "┏" + strings.Repeat("━", boxWidth) + "┓"
	heavyBottom := margin + "┗" + strings.Repeat("━", boxWidth) + "┛"

	padded := padRight("  "+title, boxWidth)

	fmt.Fprintf(w, "%s%s%s\n", Cyan, heavyTop, Reset)
	fmt.Fprintf(w, "%s%s┃%s┃%s\n", Cyan, margin, padded, Reset)
	fmt.Fprintf(w, "%s%s%s\n", Cyan, heavyBottom, Reset)
}

// Section prints a section divider line: ── Name ─────────────────
func Section(w io.Writer, name string) {
	prefix := "── " + name + " "
	remaining := boxWidth + 2 - runeLen(prefix)
	if remaining < 0 {
		remaining = 0
	}
	rule := prefix + strings.Repeat("─", remaining)
	fmt.Fprintf(w, "\n%s%s%s%s\n\n", margin, Cyan, rule, Reset)
}

// Box prints a light-border box around content lines.
func Box(w io.Writer, lines []string) {
	lightTop := margin + "┌" + strings.Repeat("─", boxWidth) + "┐"
	lightBottom := margin + "└" + strings.Repeat("─", boxWidth) + "┘"

	fmt.Fprintln(w)
	fmt.Fprintln(w, lightTop)
	for _, line := range lines {
		padded := padRight("  "+line, boxWidth)
		fmt.Fprintf(w, "%s│%s│\n", margin, padded)
	}
	fmt.Fprintln(w, lightBottom)
}

// Row prints an aligned "label  value" line inside a section.
func Row(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s%s%s\n", margin, padRight(label, 22), fmt.Sprint(value))
}

// Warn prints a warning line on stderr in the same layout as progress output.
func Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s%s[WARN]%s %s\n", margin, Yellow, Reset, fmt.Sprintf(format, args...))
}

// Counter is one labelled number in a summary box.
type Counter struct {
	Label string
	Value int
	// Alert highlights non-zero values (failures).
	Alert bool
}

// SummaryLines formats counters for Box, skipping zero alerts.
func SummaryLines(counters []Counter) []string {
	lines := make([]string, 0, len(counters))
	for _, c := range counters {
		if c.Alert && c.Value == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", padRight(c.Label+":", 20), FormatNumber(c.Value)))
	}
	return lines
}

// padRight pads s with spaces to exactly width characters.
// If s is longer than width, it is truncated.
func padRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		r := []rune(s)
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

// runeLen counts the display width in runes.
func runeLen(s string) int {
	return len([]rune(s))
}
