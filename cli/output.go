package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/georgepadayatti/goades/report"
)

var (
	passedColor        = color.New(color.FgGreen, color.Bold)
	failedColor        = color.New(color.FgRed, color.Bold)
	indeterminateColor = color.New(color.FgYellow, color.Bold)
)

func setColor(disabled bool) {
	if disabled {
		color.NoColor = true
	}
}

func writeInput(w io.Writer, in *Input) {
	fmt.Fprintf(w, "Input: %s\n", in.Path)
	fmt.Fprintf(w, "%s: %s\n\n", in.Algorithm, in.Fingerprint)
}

// writeSummary prints one coloured line per item and the overall result.
func writeSummary(w io.Writer, r *report.Simple) {
	fmt.Fprintf(w, "\nSummary\n-------\n")
	for _, it := range r.Items {
		fmt.Fprintf(w, "  %-24s %s\n", it.ID, indicationLine(it.Conclusion))
	}
	fmt.Fprintf(w, "\nOverall: %s\n", indicationLine(r.Conclusion))
}

// indicationLine renders the icon and indication of c in its colour.
func indicationLine(c *report.Conclusion) string {
	if c == nil {
		return "[?]"
	}
	text := string(c.Indication)
	if c.SubIndication != "" {
		text += " (" + string(c.SubIndication) + ")"
	}
	switch {
	case c.IsPassed():
		return passedColor.Sprint("[OK] " + text)
	case c.IsFailed():
		return failedColor.Sprint("[FAIL] " + text)
	case c.IsIndeterminate():
		return indeterminateColor.Sprint("[WARN] " + text)
	default:
		return "[?] " + text
	}
}
