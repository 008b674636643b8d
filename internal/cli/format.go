package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// FormatMoney formats a monetary value in dollars.
func FormatMoney(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

// FormatSignedMoney formats a P&L value with its sign and color.
func FormatSignedMoney(amount float64) string {
	s := FormatMoney(amount)
	if amount > 0 {
		return color.GreenString("+" + s)
	}
	if amount < 0 {
		return color.RedString(s)
	}
	return s
}

// FormatPercentPlain formats a percentage without coloring.
func FormatPercentPlain(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// writeRow writes one tab-separated row.
func writeRow(w io.Writer, cols ...any) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

// FormatPercent formats a percentage with its sign and color.
func FormatPercent(pct float64) string {
	s := fmt.Sprintf("%.2f%%", pct)
	if pct > 0 {
		return color.GreenString("+" + s)
	}
	if pct < 0 {
		return color.RedString(s)
	}
	return s
}
