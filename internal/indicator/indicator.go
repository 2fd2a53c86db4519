// Package indicator computes technical indicators over ordered price series.
//
// Every indicator is a pure function from a series and parameters to a
// []float64 aligned 1:1 with the input bars. Positions where the indicator
// is undefined (not enough lookback) hold NaN. Indicators never return
// errors at compute time; parameter problems are caught by Validate during
// strategy load.
package indicator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"stock-screener-lab/internal/domain"
)

// Validation errors.
var (
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrInvalidPeriod    = errors.New("period must be a positive integer")
	ErrInvalidParam     = errors.New("invalid indicator parameter")
)

// Params carries numeric indicator parameters (e.g. "period": 14).
type Params map[string]float64

// Period returns the "period" parameter as int, or def when absent.
func (p Params) Period(def int) int {
	return p.intVal("period", def)
}

func (p Params) intVal(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	return int(v)
}

func (p Params) floatVal(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	return v
}

// ComputeFunc computes one indicator over a series.
type ComputeFunc func(s *domain.PriceSeries, p Params) []float64

// Definition describes one registered indicator.
type Definition struct {
	Name           string
	RequiresPeriod bool
	DefaultPeriod  int
	Compute        ComputeFunc
}

// registry maps indicator name to its definition. The set of names is
// fixed; strategies referencing anything else fail validation at load.
var registry = map[string]Definition{
	// Price and volume passthroughs.
	"open":            {Name: "open", Compute: openSeries},
	"high":            {Name: "high", Compute: highSeries},
	"low":             {Name: "low", Compute: lowSeries},
	"close":           {Name: "close", Compute: closeSeries},
	"volume":          {Name: "volume", Compute: volumeSeries},
	"volume_turnover": {Name: "volume_turnover", Compute: volumeTurnover},

	// Moving averages.
	"sma":  {Name: "sma", RequiresPeriod: true, DefaultPeriod: 20, Compute: smaIndicator},
	"ema":  {Name: "ema", RequiresPeriod: true, DefaultPeriod: 20, Compute: emaIndicator},
	"wma":  {Name: "wma", RequiresPeriod: true, DefaultPeriod: 20, Compute: wmaIndicator},
	"hma":  {Name: "hma", RequiresPeriod: true, DefaultPeriod: 20, Compute: hmaIndicator},
	"vwma": {Name: "vwma", RequiresPeriod: true, DefaultPeriod: 20, Compute: vwmaIndicator},

	// Momentum.
	"rsi":         {Name: "rsi", RequiresPeriod: true, DefaultPeriod: 14, Compute: rsiIndicator},
	"macd":        {Name: "macd", Compute: macdIndicator},
	"macd_signal": {Name: "macd_signal", Compute: macdSignalIndicator},
	"adx":         {Name: "adx", RequiresPeriod: true, DefaultPeriod: 14, Compute: adxIndicator},

	// Volatility.
	"atr":       {Name: "atr", RequiresPeriod: true, DefaultPeriod: 14, Compute: atrIndicator},
	"atr_ratio": {Name: "atr_ratio", RequiresPeriod: true, DefaultPeriod: 14, Compute: atrRatioIndicator},
	"bb_high":   {Name: "bb_high", RequiresPeriod: true, DefaultPeriod: 20, Compute: bbHighIndicator},
	"bb_mid":    {Name: "bb_mid", RequiresPeriod: true, DefaultPeriod: 20, Compute: bbMidIndicator},
	"bb_low":    {Name: "bb_low", RequiresPeriod: true, DefaultPeriod: 20, Compute: bbLowIndicator},

	// Volume.
	"volume_sma": {Name: "volume_sma", RequiresPeriod: true, DefaultPeriod: 20, Compute: volumeSMAIndicator},
}

// Lookup returns the definition for name.
func Lookup(name string) (Definition, bool) {
	def, ok := registry[name]
	return def, ok
}

// Names returns all registered indicator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks name and params at strategy-load time.
func Validate(name string, p Params) error {
	def, ok := registry[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
	}

	if v, ok := p["period"]; ok {
		if v < 1 || v != math.Trunc(v) {
			return fmt.Errorf("%w: %q period %v", ErrInvalidPeriod, name, v)
		}
	}

	switch def.Name {
	case "macd", "macd_signal":
		fast := p.intVal("fast", defaultMACDFast)
		slow := p.intVal("slow", defaultMACDSlow)
		signal := p.intVal("signal", defaultMACDSignal)
		if fast < 1 || slow < 1 || signal < 1 {
			return fmt.Errorf("%w: %q fast/slow/signal must be positive", ErrInvalidParam, name)
		}
		if fast >= slow {
			return fmt.Errorf("%w: %q fast period %d must be below slow period %d", ErrInvalidParam, name, fast, slow)
		}
	case "bb_high", "bb_mid", "bb_low":
		if k := p.floatVal("stddev", defaultBollingerK); k <= 0 {
			return fmt.Errorf("%w: %q stddev multiplier must be positive", ErrInvalidParam, name)
		}
	}

	return nil
}

// Compute runs the named indicator. The name must have passed Validate.
func Compute(name string, s *domain.PriceSeries, p Params) ([]float64, error) {
	def, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
	}
	return def.Compute(s, p), nil
}

// MinBars returns the minimum number of bars before the named indicator
// produces a defined value. Used for result annotations, not enforcement:
// shorter series simply yield NaN positions.
func MinBars(name string, p Params) int {
	def, ok := registry[name]
	if !ok {
		return 0
	}
	switch def.Name {
	case "rsi":
		return def.period(p) + 1
	case "macd":
		return p.intVal("slow", defaultMACDSlow)
	case "macd_signal":
		return p.intVal("slow", defaultMACDSlow) + p.intVal("signal", defaultMACDSignal) - 1
	case "adx":
		return 2 * def.period(p)
	case "hma":
		period := def.period(p)
		return period + int(math.Sqrt(float64(period))) - 1
	default:
		if def.RequiresPeriod {
			return def.period(p)
		}
		return 1
	}
}

func (d Definition) period(p Params) int {
	return p.Period(d.DefaultPeriod)
}
