// Package costrate holds per-model token pricing used to estimate
// conversation cost. Rates are configuration, not canon: callers load
// a Table from internal/config and override the built-in defaults
// rather than treating any rate as authoritative.
package costrate

import "github.com/jkindrix/claude-snatch/internal/model"

// Rate holds per-million-token USD pricing for one model.
type Rate struct {
	InputPerMTok       float64
	OutputPerMTok      float64
	CacheWritePerMTok  float64
	CacheReadPerMTok   float64
}

// Table maps a model name to its Rate.
type Table map[string]Rate

// DefaultTable returns a small built-in set of rates as a convenience
// default. It is not meant to stay accurate indefinitely — operators
// override it via configuration.
func DefaultTable() Table {
	return Table{
		"claude-opus-4-6":   {InputPerMTok: 15, OutputPerMTok: 75, CacheWritePerMTok: 18.75, CacheReadPerMTok: 1.5},
		"claude-sonnet-4-6": {InputPerMTok: 3, OutputPerMTok: 15, CacheWritePerMTok: 3.75, CacheReadPerMTok: 0.3},
		"claude-haiku-4-6":  {InputPerMTok: 0.8, OutputPerMTok: 4, CacheWritePerMTok: 1, CacheReadPerMTok: 0.08},
	}
}

// Merge overlays override on top of t, returning a new table; entries
// in override win. A nil or empty override returns t unchanged.
func (t Table) Merge(override Table) Table {
	if len(override) == 0 {
		return t
	}
	merged := make(Table, len(t)+len(override))
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// Estimate returns the estimated USD cost of usage under modelName's
// rate. An unknown model returns 0 rather than guessing.
func (t Table) Estimate(modelName string, usage model.Usage) float64 {
	rate, ok := t[modelName]
	if !ok {
		return 0
	}
	const perM = 1_000_000
	cost := float64(usage.InputTokens)/perM*rate.InputPerMTok +
		float64(usage.OutputTokens)/perM*rate.OutputPerMTok +
		float64(usage.CacheCreationInputTokens)/perM*rate.CacheWritePerMTok +
		float64(usage.CacheReadInputTokens)/perM*rate.CacheReadPerMTok
	return cost
}
