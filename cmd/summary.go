package cmd

import (
	"fmt"
	"strings"

	"db-sanity/internal/check"
	"db-sanity/internal/schema"
)

type checkLine struct {
	name          string
	failed        bool
	informational bool
	detail        string
}

func linesOf(results []check.Result) []checkLine {
	lines := make([]checkLine, 0, len(results))
	for _, r := range results {
		lines = append(lines, checkLine{r.Check, r.Failed(), r.Informational, detailText(r.Metric, r.Details)})
	}
	return lines
}

// printScope prints one table or relationship line, then its failed and
// informational checks underneath.
func printScope(head string, lines []checkLine) {
	failed := 0
	for _, l := range lines {
		if l.failed {
			failed++
		}
	}
	icon := "✓"
	if failed > 0 {
		icon = "!"
	}
	fmt.Printf("[%s] %s - %d/%d checks passed\n", icon, head, len(lines)-failed, len(lines))
	for _, l := range lines {
		switch {
		case l.failed:
			fmt.Printf("    └ Failed: %s%s\n", l.name, l.detail)
		case l.informational:
			fmt.Printf("    └ Info: %s%s\n", l.name, l.detail)
		}
	}
}

func detailText(metric *float64, d *check.Details) string {
	var parts []string
	if metric != nil {
		parts = append(parts, fmt.Sprintf("%.2f", *metric))
	}
	if d != nil {
		for _, p := range []struct {
			label string
			vals  []schema.Value
		}{
			{"invalid", d.InvalidValues},
			{"missing", d.MissingIDs},
			{"duplicates", d.DuplicateParentIDs},
			{"duplicates", d.DuplicateChildIDs},
		} {
			if len(p.vals) > 0 {
				parts = append(parts, fmt.Sprintf("%s: %s", p.label, schema.FormatValues(p.vals)))
			}
		}
		for _, p := range []struct {
			label string
			keys  []string
		}{
			{"keys", d.SampleKeys},
			{"duplicate keys", d.DuplicateKeys},
			{"mismatched keys", d.MismatchedKeys},
			{"missing tables", d.MissingTables},
		} {
			if len(p.keys) > 0 {
				parts = append(parts, fmt.Sprintf("%s: [%s]", p.label, strings.Join(p.keys, ", ")))
			}
		}
		if d.Count > 0 {
			parts = append(parts, fmt.Sprintf("count: %d", d.Count))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}
