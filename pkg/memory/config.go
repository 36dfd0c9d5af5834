package memory

// Document names inside the memory store.
const (
	WeeklyDocument      = "weekly_signals.json"
	TrendsDocument      = "trends.json"
	PredictionsDocument = "history_insights.json"
)

// Limits bounds every retention window kept by the memory documents.
type Limits struct {
	ArchivedWeeks int `json:",default=12"`
	WeeklyCounts  int `json:",default=12"`
	// KeyEvents caps key_events per trend; 0 keeps every event.
	KeyEvents     int `json:",default=50"`
	Predictions   int `json:",default=100"`
	TrendIDLength int `json:",default=40"`
}

// DefaultLimits mirrors the config defaults for callers that build stores directly.
func DefaultLimits() Limits {
	return Limits{
		ArchivedWeeks: 12,
		WeeklyCounts:  12,
		KeyEvents:     50,
		Predictions:   100,
		TrendIDLength: 40,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.ArchivedWeeks <= 0 {
		l.ArchivedWeeks = d.ArchivedWeeks
	}
	if l.WeeklyCounts <= 0 {
		l.WeeklyCounts = d.WeeklyCounts
	}
	if l.KeyEvents < 0 {
		l.KeyEvents = 0
	}
	if l.Predictions <= 0 {
		l.Predictions = d.Predictions
	}
	if l.TrendIDLength <= 0 {
		l.TrendIDLength = d.TrendIDLength
	}
	return l
}

// keepLast trims s to its last n elements.
func keepLast[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return append([]T(nil), s[len(s)-n:]...)
}
