// Package eval evaluates a parsed strategy against one symbol's price
// history and produces a per-symbol verdict.
//
// Evaluation is pure: it performs no I/O, and a Context is owned by
// exactly one evaluation (one symbol, one strategy). Concurrent screening
// gives each symbol its own Context; the shared Strategy is read-only.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"stock-screener-lab/internal/domain"
	"stock-screener-lab/internal/indicator"
	"stock-screener-lab/internal/resample"
)

// Context bundles one symbol's daily series with lazily resampled
// timeframe series and memoized indicator computations. Discard after the
// verdict is produced.
type Context struct {
	daily  *domain.PriceSeries
	series map[domain.Timeframe]*domain.PriceSeries
	memo   map[string][]float64

	computations int // indicator computations actually performed
}

// NewContext creates a per-symbol evaluation context.
func NewContext(daily *domain.PriceSeries) *Context {
	return &Context{
		daily:  daily,
		series: map[domain.Timeframe]*domain.PriceSeries{domain.TimeframeDaily: daily},
		memo:   make(map[string][]float64),
	}
}

// Series returns the symbol's series for tf, resampling on first use.
func (c *Context) Series(tf domain.Timeframe) *domain.PriceSeries {
	if s, ok := c.series[tf]; ok {
		return s
	}
	s := resample.Resample(c.daily, tf)
	c.series[tf] = s
	return s
}

// IndicatorSeries returns the computed indicator values for
// (name, params, tf), computing at most once per context.
func (c *Context) IndicatorSeries(name string, params indicator.Params, tf domain.Timeframe) ([]float64, error) {
	key := memoKey(name, params, tf)
	if values, ok := c.memo[key]; ok {
		return values, nil
	}

	values, err := indicator.Compute(name, c.Series(tf), params)
	if err != nil {
		return nil, err
	}
	c.computations++
	c.memo[key] = values
	return values, nil
}

// Computations reports how many indicator series were actually computed
// (memo hits excluded).
func (c *Context) Computations() int { return c.computations }

// memoKey canonicalizes (name, params, timeframe) so that equal requests
// share one cache entry regardless of map iteration order.
func memoKey(name string, params indicator.Params, tf domain.Timeframe) string {
	if len(params) == 0 {
		return name + "|" + string(tf)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('|')
	sb.WriteString(string(tf))
	for _, k := range keys {
		fmt.Fprintf(&sb, "|%s=%g", k, params[k])
	}
	return sb.String()
}
