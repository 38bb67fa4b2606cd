package main

import (
	"fmt"
	"os"

	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// formatCycle renders one generated cycle for display. Whole days
// only; the note is bracketed when present.
func formatCycle(c storage.Cycle) string {
	s := fmt.Sprintf("Cycle %d: Start on %s and bleed for %d days",
		c.Seq, c.StartDate.Format("2006-01-02"), int(c.BleedDays))
	if c.Note != "" {
		s += fmt.Sprintf(" [%s]", c.Note)
	}
	return s
}
