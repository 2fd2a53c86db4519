package reporting

import (
	"fmt"
	"strings"
	"time"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/screener"
)

// RenderMarkdown renders screen reports as a Markdown document with one
// section per strategy.
func RenderMarkdown(reports []*screener.Report) string {
	var sb strings.Builder

	sb.WriteString("# Screen Report\n\n")
	if len(reports) > 0 {
		sb.WriteString(fmt.Sprintf("Generated: %s\n\n", reports[0].StartedAt.UTC().Format(time.RFC3339)))
	}

	for _, report := range reports {
		sb.WriteString(fmt.Sprintf("## %s\n\n", report.Strategy))
		sb.WriteString("| Verdict | Count |\n")
		sb.WriteString("|---------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Matched | %d |\n", report.Matched))
		sb.WriteString(fmt.Sprintf("| Not matched | %d |\n", report.NotMatched))
		sb.WriteString(fmt.Sprintf("| Skipped | %d |\n\n", report.Skipped))

		matched := filterByVerdict(report.Results, domain.VerdictMatched)
		if len(matched) > 0 {
			sb.WriteString("### Matches\n\n")
			sb.WriteString("| Symbol | Condition Values (lhs/rhs) |\n")
			sb.WriteString("|--------|----------------------------|\n")
			for _, r := range matched {
				sb.WriteString(fmt.Sprintf("| %s | %s |\n", r.Symbol, formatValues(r.Values)))
			}
			sb.WriteString("\n")
		} else {
			sb.WriteString("No matches.\n\n")
		}

		skipped := filterByVerdict(report.Results, domain.VerdictSkipped)
		if len(skipped) > 0 {
			sb.WriteString("### Skipped\n\n")
			for _, r := range skipped {
				sb.WriteString(fmt.Sprintf("- %s (%s)\n", r.Symbol, r.SkipReason))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func filterByVerdict(results []domain.SymbolResult, verdict domain.Verdict) []domain.SymbolResult {
	var out []domain.SymbolResult
	for _, r := range results {
		if r.Verdict == verdict {
			out = append(out, r)
		}
	}
	return out
}
