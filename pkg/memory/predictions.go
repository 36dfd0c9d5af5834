package memory

import (
	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
)

// Prediction is a previously stated implication kept for self-correction.
type Prediction struct {
	ID             string `json:"id,omitempty"`
	Date           string `json:"date"`
	PredictionText string `json:"prediction_text"`
	Category       string `json:"category,omitempty"`
	SourceSignal   string `json:"source_signal,omitempty"`
	Timeframe      string `json:"timeframe,omitempty"`
}

// PredictionHistory is the persisted prediction document.
type PredictionHistory struct {
	Predictions []Prediction `json:"predictions"`
}

func emptyPredictionHistory() PredictionHistory {
	return PredictionHistory{Predictions: []Prediction{}}
}

// PredictionLog is an append-only, count-capped prediction history.
type PredictionLog struct {
	store  *docstore.Store
	clock  *clock.Clock
	limits Limits
}

// NewPredictionLog constructs the log over store.
func NewPredictionLog(store *docstore.Store, clk *clock.Clock, limits Limits) *PredictionLog {
	return &PredictionLog{store: store, clock: clk, limits: limits.withDefaults()}
}

// Load returns the persisted history or an empty one.
func (p *PredictionLog) Load() PredictionHistory {
	h := docstore.Load(p.store, PredictionsDocument, emptyPredictionHistory)
	if h.Predictions == nil {
		h.Predictions = []Prediction{}
	}
	return h
}

// Append stores pred, stamping id and date when absent, and drops the oldest
// entries beyond the configured cap.
func (p *PredictionLog) Append(pred Prediction) (Prediction, error) {
	if pred.ID == "" {
		pred.ID = uuid.NewString()
	}
	if pred.Date == "" {
		pred.Date = p.clock.Timestamp()
	}
	h := p.Load()
	h.Predictions = keepLast(append(h.Predictions, pred), p.limits.Predictions)
	if err := p.store.Save(PredictionsDocument, h); err != nil {
		return pred, err
	}
	return pred, nil
}

// Recent returns predictions dated within weeks*7 whole days of now, oldest
// first. Entries with missing or unparseable dates are skipped.
func (p *PredictionLog) Recent(weeks int) []Prediction {
	now := p.clock.Now()
	maxDays := weeks * 7
	out := make([]Prediction, 0)
	for _, pred := range p.Load().Predictions {
		if pred.Date == "" {
			continue
		}
		at, err := p.clock.ParseTimestamp(pred.Date)
		if err != nil {
			logx.Infof("memory: prediction %q has malformed date %q, skipped", pred.ID, pred.Date)
			continue
		}
		if wholeDays(now.Sub(at).Hours()) <= maxDays {
			out = append(out, pred)
		}
	}
	return out
}

// wholeDays floors an hour span to days, rounding negative spans down.
func wholeDays(hours float64) int {
	days := int(hours / 24)
	if hours < 0 && float64(days*24) != hours {
		days--
	}
	return days
}
