// Package reporting renders screening reports for files and terminals.
package reporting

import (
	"fmt"
	"strings"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/screener"
)

// RenderCSV renders screen reports as a CSV string, one row per
// evaluated symbol.
func RenderCSV(reports []*screener.Report) string {
	var sb strings.Builder

	sb.WriteString("strategy,symbol,verdict,skip_reason,condition_values\n")

	for _, report := range reports {
		for _, r := range report.Results {
			sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s\n",
				csvEscape(report.Strategy),
				r.Symbol,
				r.Verdict,
				r.SkipReason,
				csvEscape(formatValues(r.Values)),
			))
		}
	}

	return sb.String()
}

// formatValues renders condition values as "lhs op rhs" pairs joined
// by semicolons.
func formatValues(values []domain.ConditionValue) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.4f/%.4f", v.LHS, v.RHS)
	}
	return strings.Join(parts, ";")
}

func csvEscape(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
