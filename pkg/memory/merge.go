package memory

// Trend updates follow a last-writer-wins, additive-counter policy. Each field
// change proposed by the model becomes one TrendDelta so the merge can be
// exercised without touching storage.

// TrendDelta is a single field change applied to an existing trend.
type TrendDelta interface {
	apply(t *Trend, m mergeContext)
}

type mergeContext struct {
	today  string
	limits Limits
}

// TrajectoryOverwrite replaces the trajectory. An empty value keeps the prior one.
type TrajectoryOverwrite struct {
	Trajectory Trajectory
}

func (d TrajectoryOverwrite) apply(t *Trend, _ mergeContext) {
	if d.Trajectory != "" {
		t.Trajectory = d.Trajectory
	}
}

// CounterDelta adds to signal_count and records the delta in weekly_counts.
// Negative deltas are applied as given.
type CounterDelta struct {
	Delta int
}

func (d CounterDelta) apply(t *Trend, m mergeContext) {
	t.SignalCount += d.Delta
	t.WeeklyCounts = keepLast(append(t.WeeklyCounts, d.Delta), m.limits.WeeklyCounts)
}

// EventAppend records a dated key event. Empty events are ignored.
type EventAppend struct {
	Event string
}

func (d EventAppend) apply(t *Trend, m mergeContext) {
	if d.Event == "" {
		return
	}
	t.KeyEvents = append(t.KeyEvents, KeyEvent{Date: m.today, Event: d.Event})
	if m.limits.KeyEvents > 0 {
		t.KeyEvents = keepLast(t.KeyEvents, m.limits.KeyEvents)
	}
}

// Deltas expands an update proposal into its ordered field changes.
func (u TrendChange) Deltas() []TrendDelta {
	return []TrendDelta{
		TrajectoryOverwrite{Trajectory: u.Trajectory},
		CounterDelta{Delta: u.SignalCountDelta},
		EventAppend{Event: u.NewKeyEvent},
	}
}

// MergeTrend applies deltas to t in order.
func MergeTrend(t *Trend, deltas []TrendDelta, today string, limits Limits) {
	m := mergeContext{today: today, limits: limits.withDefaults()}
	for _, d := range deltas {
		d.apply(t, m)
	}
}
