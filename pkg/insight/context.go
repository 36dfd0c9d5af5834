package insight

import (
	"encoding/json"

	"insight-memory/pkg/memory"
)

const (
	noPredictions = "No past predictions yet (first run)."
	noTrends      = "No trends tracked yet."

	// DefaultPredictionWeeks is the self-correction lookback.
	DefaultPredictionWeeks = 4
	maxContextPredictions  = 10
	maxContextTrends       = 15
)

// PredictionContext renders predictions stated in the last weeks as indented
// JSON, newest ten only, for use as self-correction context in prompts.
func PredictionContext(log *memory.PredictionLog, weeks int) string {
	recent := log.Recent(weeks)
	if len(recent) == 0 {
		return noPredictions
	}
	if len(recent) > maxContextPredictions {
		recent = recent[len(recent)-maxContextPredictions:]
	}
	return indent(recent, noPredictions)
}

// TrendContext renders the strongest tracked trends for prompts.
func TrendContext(ledger memory.TrendLedger) string {
	summaries := ledger.Summaries()
	if len(summaries) == 0 {
		return noTrends
	}
	if len(summaries) > maxContextTrends {
		summaries = summaries[:maxContextTrends]
	}
	return indent(summaries, noTrends)
}

func indent(v any, fallback string) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fallback
	}
	return string(data)
}
