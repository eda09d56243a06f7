package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/georgepadayatti/goades/diagnostic"
)

// TextFormat selects the sections of the text rendering.
type TextFormat struct {
	IncludeScopes     bool
	IncludeTimestamps bool
	IncludeInfos      bool
}

// DefaultTextFormat returns the default text format.
func DefaultTextFormat() *TextFormat {
	return &TextFormat{
		IncludeScopes:     true,
		IncludeTimestamps: true,
		IncludeInfos:      false,
	}
}

// ToText generates a human readable report.
func (r *Simple) ToText(format *TextFormat) string {
	if format == nil {
		format = DefaultTextFormat()
	}

	var sb strings.Builder

	sb.WriteString("=== VALIDATION REPORT ===\n")
	sb.WriteString(fmt.Sprintf("Report ID: %s\n", r.ID))
	sb.WriteString(fmt.Sprintf("Validation Time: %s\n", r.ValidationTime.UTC().Format(time.RFC3339)))
	if r.ValidationPolicy != nil {
		sb.WriteString(fmt.Sprintf("Policy: %s\n", r.ValidationPolicy.Name))
	}

	sb.WriteString("\nOverall Result: ")
	writeIndication(&sb, r.Conclusion)

	sb.WriteString(fmt.Sprintf("\nItems: %d total, %d passed, %d failed\n",
		r.ItemCount(), r.PassedCount(), r.FailedCount()))

	for i, it := range r.Items {
		sb.WriteString(fmt.Sprintf("\n--- %s %d ---\n", itemTitle(it), i+1))
		sb.WriteString(fmt.Sprintf("ID: %s\n", it.ID))
		if it.Format != "" {
			sb.WriteString(fmt.Sprintf("Format: %s\n", it.Format))
		}
		if it.Parent != "" {
			sb.WriteString(fmt.Sprintf("Counter-signature of: %s\n", it.Parent))
		}
		if it.ValidationLevel.IsSet() {
			sb.WriteString(fmt.Sprintf("Level: %s\n", it.ValidationLevel))
		}
		if it.SignedBy != "" {
			sb.WriteString(fmt.Sprintf("Signed By: %s\n", it.SignedBy))
		}
		writeTime(&sb, "Signing Time", it.SigningTime)
		writeTime(&sb, "Production Time", it.ProductionTime)
		writeTime(&sb, "Best Signature Time", it.BestSignatureTime)
		if it.Qualification != "" {
			sb.WriteString(fmt.Sprintf("Qualification: %s\n", it.Qualification))
		}

		if format.IncludeScopes && len(it.Scopes) > 0 {
			sb.WriteString("Scopes:\n")
			for _, s := range it.Scopes {
				if s.MimeType != "" {
					sb.WriteString(fmt.Sprintf("  - %s (%s, %s)\n", s.Name, s.Scope, s.MimeType))
				} else {
					sb.WriteString(fmt.Sprintf("  - %s (%s)\n", s.Name, s.Scope))
				}
			}
		}

		if format.IncludeTimestamps && len(it.Timestamps) > 0 {
			sb.WriteString("Timestamps:\n")
			for _, ts := range it.Timestamps {
				sb.WriteString(fmt.Sprintf("  - %s %s: %s", ts.ID, ts.Type, ts.ProductionTime.UTC().Format(time.RFC3339)))
				if ts.Conclusion != nil {
					sb.WriteString(fmt.Sprintf(" %s", ts.Conclusion.Indication))
				}
				if ts.Qualification != "" {
					sb.WriteString(fmt.Sprintf(" [%s]", ts.Qualification))
				}
				sb.WriteString("\n")
			}
		}

		if it.Conclusion != nil {
			sb.WriteString("Result: ")
			writeIndication(&sb, it.Conclusion)
			writeMessages(&sb, it.Conclusion, format.IncludeInfos)
		}
	}

	return sb.String()
}

// ToText generates a human readable certificate report.
func (r *SimpleCertificate) ToText() string {
	var sb strings.Builder

	sb.WriteString("=== CERTIFICATE REPORT ===\n")
	sb.WriteString(fmt.Sprintf("Report ID: %s\n", r.ID))
	sb.WriteString(fmt.Sprintf("Validation Time: %s\n", r.ValidationTime.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Certificate: %s\n", r.Certificate))
	if len(r.Chain) > 0 {
		sb.WriteString("Certificate Chain:\n")
		for i, c := range r.Chain {
			name := c.Subject
			if name == "" {
				name = c.ID
			}
			if c.Trusted {
				name += " (trusted)"
			}
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, name))
		}
	}
	if r.Qualification != "" {
		sb.WriteString(fmt.Sprintf("Qualification: %s\n", r.Qualification))
	}
	sb.WriteString("\nResult: ")
	writeIndication(&sb, r.Conclusion)
	writeMessages(&sb, r.Conclusion, true)
	return sb.String()
}

func itemTitle(it *Item) string {
	switch it.Kind {
	case diagnostic.KindTimestamp:
		return "Timestamp"
	case diagnostic.KindEvidenceRecord:
		return "Evidence Record"
	default:
		return "Signature"
	}
}

func writeTime(sb *strings.Builder, label string, t *time.Time) {
	if t != nil {
		sb.WriteString(fmt.Sprintf("%s: %s\n", label, t.UTC().Format(time.RFC3339)))
	}
}

func writeIndication(sb *strings.Builder, c *Conclusion) {
	if c == nil {
		sb.WriteString("-\n")
		return
	}
	sb.WriteString(string(c.Indication))
	if c.SubIndication != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", c.SubIndication))
	}
	sb.WriteString("\n")
}

func writeMessages(sb *strings.Builder, c *Conclusion, infos bool) {
	if c == nil {
		return
	}
	for _, err := range c.Errors {
		sb.WriteString(fmt.Sprintf("  ERROR: %s - %s\n", err.Key, err.Value))
	}
	for _, warn := range c.Warnings {
		sb.WriteString(fmt.Sprintf("  WARNING: %s - %s\n", warn.Key, warn.Value))
	}
	if infos {
		for _, info := range c.Infos {
			sb.WriteString(fmt.Sprintf("  INFO: %s - %s\n", info.Key, info.Value))
		}
	}
}
