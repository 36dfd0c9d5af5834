package memory

import (
	"sort"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
)

// Trajectory labels a trend's momentum. Stored as free-form text.
type Trajectory string

const (
	TrajectoryEmerging     Trajectory = "emerging"
	TrajectoryAccelerating Trajectory = "accelerating"
	TrajectoryStable       Trajectory = "stable"
	TrajectoryDeclining    Trajectory = "declining"
	TrajectoryDormant      Trajectory = "dormant"
)

// Known reports whether t is one of the recognised labels.
func (t Trajectory) Known() bool {
	switch t {
	case TrajectoryEmerging, TrajectoryAccelerating, TrajectoryStable, TrajectoryDeclining, TrajectoryDormant:
		return true
	}
	return false
}

// KeyEvent is a dated milestone in a trend's history.
type KeyEvent struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// Trend is a persistent theme tracked across many signals.
type Trend struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	RelatedTags  []string   `json:"related_tags"`
	Trajectory   Trajectory `json:"trajectory"`
	SignalCount  int        `json:"signal_count"`
	WeeklyCounts []int      `json:"weekly_counts"`
	KeyEvents    []KeyEvent `json:"key_events"`
	Created      string     `json:"created"`
}

// TrendLedger is the persisted trend document.
type TrendLedger struct {
	LastUpdated *string `json:"last_updated"`
	Trends      []Trend `json:"trends"`
}

func emptyTrendLedger() TrendLedger {
	return TrendLedger{Trends: []Trend{}}
}

// TrendSummary is the projection handed to reporting.
type TrendSummary struct {
	Name        string     `json:"name"`
	Trajectory  Trajectory `json:"trajectory"`
	SignalCount int        `json:"signal_count"`
}

// Summaries projects the ledger, strongest trends first.
func (l TrendLedger) Summaries() []TrendSummary {
	out := make([]TrendSummary, 0, len(l.Trends))
	for _, t := range l.Trends {
		out = append(out, TrendSummary{Name: t.Name, Trajectory: t.Trajectory, SignalCount: t.SignalCount})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SignalCount > out[j].SignalCount })
	return out
}

// TrendChange is a model-proposed update to an existing trend.
type TrendChange struct {
	ID               string     `json:"id"`
	Trajectory       Trajectory `json:"trajectory,omitempty"`
	SignalCountDelta int        `json:"signal_count_delta"`
	NewKeyEvent      string     `json:"new_key_event,omitempty"`
}

// NewTrend is a model-proposed trend that is not yet tracked.
type NewTrend struct {
	Name              string     `json:"name"`
	RelatedTags       []string   `json:"related_tags,omitempty"`
	InitialTrajectory Trajectory `json:"initial_trajectory,omitempty"`
}

// TrendUpdate is the full proposal returned by the analysis step.
type TrendUpdate struct {
	UpdatedTrends []TrendChange `json:"updated_trends"`
	NewTrends     []NewTrend    `json:"new_trends"`
}

// ApplyResult counts what an update actually changed.
type ApplyResult struct {
	Updated   int
	Created   int
	Unmatched int
	Discarded int
}

// TrendStore merges model-proposed deltas into the trend ledger.
type TrendStore struct {
	store  *docstore.Store
	clock  *clock.Clock
	limits Limits
}

// NewTrendStore constructs the ledger store.
func NewTrendStore(store *docstore.Store, clk *clock.Clock, limits Limits) *TrendStore {
	return &TrendStore{store: store, clock: clk, limits: limits.withDefaults()}
}

// Load returns the persisted ledger or an empty one.
func (s *TrendStore) Load() TrendLedger {
	l := docstore.Load(s.store, TrendsDocument, emptyTrendLedger)
	if l.Trends == nil {
		l.Trends = []Trend{}
	}
	return l
}

// DeriveID turns a display name into the stable trend id: lower-cased, spaces
// replaced with underscores, truncated to maxLen runes.
func DeriveID(name string, maxLen int) string {
	id := []rune(strings.ReplaceAll(strings.ToLower(name), " ", "_"))
	if maxLen > 0 && len(id) > maxLen {
		id = id[:maxLen]
	}
	return string(id)
}

// Apply merges update into the ledger: existing trends are updated first, then
// proposals whose derived id is not yet present are created.
func (s *TrendStore) Apply(update TrendUpdate) (ApplyResult, error) {
	var res ApplyResult
	l := s.Load()
	today := s.clock.Today()

	index := make(map[string]int, len(l.Trends))
	for i, t := range l.Trends {
		index[t.ID] = i
	}

	for _, change := range update.UpdatedTrends {
		i, ok := index[change.ID]
		if !ok {
			res.Unmatched++
			logx.Infof("memory: trend update for unknown id %q skipped", change.ID)
			continue
		}
		MergeTrend(&l.Trends[i], change.Deltas(), today, s.limits)
		res.Updated++
	}

	for _, proposal := range update.NewTrends {
		if strings.TrimSpace(proposal.Name) == "" {
			res.Discarded++
			continue
		}
		id := DeriveID(proposal.Name, s.limits.TrendIDLength)
		if _, exists := index[id]; exists {
			res.Discarded++
			continue
		}
		trajectory := proposal.InitialTrajectory
		if trajectory == "" {
			trajectory = TrajectoryStable
		}
		tags := proposal.RelatedTags
		if tags == nil {
			tags = []string{}
		}
		l.Trends = append(l.Trends, Trend{
			ID:           id,
			Name:         proposal.Name,
			RelatedTags:  tags,
			Trajectory:   trajectory,
			SignalCount:  1,
			WeeklyCounts: []int{1},
			KeyEvents:    []KeyEvent{{Date: today, Event: "First detected"}},
			Created:      today,
		})
		index[id] = len(l.Trends) - 1
		res.Created++
	}

	stamp := s.clock.Timestamp()
	l.LastUpdated = &stamp
	if err := s.store.Save(TrendsDocument, l); err != nil {
		return res, err
	}
	logx.Infof("memory: saved %d trends (updated=%d created=%d unmatched=%d discarded=%d)",
		len(l.Trends), res.Updated, res.Created, res.Unmatched, res.Discarded)
	return res, nil
}
