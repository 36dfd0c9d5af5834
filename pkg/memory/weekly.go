package memory

import (
	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
)

// ArchivedWeek is one rolled-over week, kept verbatim.
type ArchivedWeek struct {
	Week string `json:"week"`
	Days Days   `json:"days"`
}

// WeeklyLedger is the persisted weekly signal log.
type WeeklyLedger struct {
	CurrentWeek   *string        `json:"current_week"`
	Days          Days           `json:"days"`
	ArchivedWeeks []ArchivedWeek `json:"archived_weeks"`
}

func emptyWeeklyLedger() WeeklyLedger {
	return WeeklyLedger{ArchivedWeeks: []ArchivedWeek{}}
}

// SignalCount returns the number of signals held in days and archives.
func (l WeeklyLedger) SignalCount() int {
	n := l.Days.SignalCount()
	for _, w := range l.ArchivedWeeks {
		n += w.Days.SignalCount()
	}
	return n
}

// WeeklyAccumulator appends per-day signal batches and rolls them up per week.
type WeeklyAccumulator struct {
	store  *docstore.Store
	clock  *clock.Clock
	limits Limits
}

// NewWeeklyAccumulator constructs the accumulator over store.
func NewWeeklyAccumulator(store *docstore.Store, clk *clock.Clock, limits Limits) *WeeklyAccumulator {
	return &WeeklyAccumulator{store: store, clock: clk, limits: limits.withDefaults()}
}

// Load returns the persisted ledger or an empty one.
func (a *WeeklyAccumulator) Load() WeeklyLedger {
	l := docstore.Load(a.store, WeeklyDocument, emptyWeeklyLedger)
	if l.ArchivedWeeks == nil {
		l.ArchivedWeeks = []ArchivedWeek{}
	}
	return l
}

// AppendDay stores batch under date. When the week of "now" differs from the
// recorded week, the recorded days are archived as one unit first. A repeated
// date replaces the earlier batch.
func (a *WeeklyAccumulator) AppendDay(date string, batch []Signal) error {
	l := a.Load()
	week := a.clock.Week()

	if l.CurrentWeek != nil && *l.CurrentWeek != "" && *l.CurrentWeek != week {
		prev := *l.CurrentWeek
		l.ArchivedWeeks = append(l.ArchivedWeeks, ArchivedWeek{Week: prev, Days: l.Days})
		l.Days = Days{}
		logx.Infof("memory: archived week %s, starting %s", prev, week)
	}
	l.ArchivedWeeks = keepLast(l.ArchivedWeeks, a.limits.ArchivedWeeks)

	if batch == nil {
		batch = []Signal{}
	}
	l.Days.Set(date, batch)
	l.CurrentWeek = &week

	if err := a.store.Save(WeeklyDocument, l); err != nil {
		return err
	}
	logx.Infof("memory: saved %d signals for %s (week %s)", len(batch), date, week)
	return nil
}

// FlattenCurrentWeek concatenates the batches of the current week in the
// order their dates were first appended.
func (a *WeeklyAccumulator) FlattenCurrentWeek() []Signal {
	l := a.Load()
	out := make([]Signal, 0, l.Days.SignalCount())
	for _, date := range l.Days.Dates() {
		batch, _ := l.Days.Get(date)
		out = append(out, batch...)
	}
	return out
}

// Rotate forces a rollover: the current days are archived (when non-empty) and
// the week marker and days are reset.
func (a *WeeklyAccumulator) Rotate() error {
	l := a.Load()
	if l.Days.Len() > 0 {
		week := ""
		if l.CurrentWeek != nil {
			week = *l.CurrentWeek
		}
		l.ArchivedWeeks = append(l.ArchivedWeeks, ArchivedWeek{Week: week, Days: l.Days})
	}
	l.ArchivedWeeks = keepLast(l.ArchivedWeeks, a.limits.ArchivedWeeks)
	l.CurrentWeek = nil
	l.Days = Days{}

	if err := a.store.Save(WeeklyDocument, l); err != nil {
		return err
	}
	logx.Info("memory: weekly signals rotated and archived")
	return nil
}
