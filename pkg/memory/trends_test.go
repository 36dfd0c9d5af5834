package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedTrend(t *testing.T, s *TrendStore, name string) string {
	t.Helper()
	_, err := s.Apply(TrendUpdate{NewTrends: []NewTrend{{Name: name, InitialTrajectory: TrajectoryEmerging}}})
	require.NoError(t, err)
	return DeriveID(name, 40)
}

func TestDeriveID(t *testing.T) {
	require.Equal(t, "agentic_coding_tools", DeriveID("Agentic Coding Tools", 40))
	require.Equal(t, "多模态_模型", DeriveID("多模态 模型", 40))

	long := strings.Repeat("Ab ", 30)
	id := DeriveID(long, 40)
	require.Len(t, []rune(id), 40)
	require.True(t, strings.HasPrefix(id, "ab_ab_"))
}

func TestApplyCreatesNewTrend(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())

	res, err := s.Apply(TrendUpdate{NewTrends: []NewTrend{
		{Name: "Small Models", RelatedTags: []string{"slm"}},
		{Name: "Agent Protocols", InitialTrajectory: TrajectoryAccelerating},
	}})
	require.NoError(t, err)
	require.Equal(t, 2, res.Created)

	l := s.Load()
	require.NotNil(t, l.LastUpdated)
	require.Len(t, l.Trends, 2)

	first := l.Trends[0]
	require.Equal(t, "small_models", first.ID)
	require.Equal(t, TrajectoryStable, first.Trajectory)
	require.Equal(t, 1, first.SignalCount)
	require.Equal(t, []int{1}, first.WeeklyCounts)
	require.Equal(t, []KeyEvent{{Date: "2026-02-23", Event: "First detected"}}, first.KeyEvents)
	require.Equal(t, "2026-02-23", first.Created)
	require.Equal(t, []string{"slm"}, first.RelatedTags)

	require.Equal(t, TrajectoryAccelerating, l.Trends[1].Trajectory)
}

func TestApplyUpdatesExistingTrend(t *testing.T) {
	store, clk, now := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())
	id := seedTrend(t, s, "Agent Protocols")

	now.set("2026-02-24")
	res, err := s.Apply(TrendUpdate{UpdatedTrends: []TrendChange{{
		ID:               id,
		Trajectory:       TrajectoryAccelerating,
		SignalCountDelta: 3,
		NewKeyEvent:      "MCP adopted by a major vendor",
	}}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)

	tr := s.Load().Trends[0]
	require.Equal(t, TrajectoryAccelerating, tr.Trajectory)
	require.Equal(t, 4, tr.SignalCount)
	require.Equal(t, []int{1, 3}, tr.WeeklyCounts)
	require.Len(t, tr.KeyEvents, 2)
	require.Equal(t, KeyEvent{Date: "2026-02-24", Event: "MCP adopted by a major vendor"}, tr.KeyEvents[1])
}

func TestApplyEmptyTrajectoryKeepsPrior(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())
	id := seedTrend(t, s, "Edge Inference")

	_, err := s.Apply(TrendUpdate{UpdatedTrends: []TrendChange{{ID: id, SignalCountDelta: -2}}})
	require.NoError(t, err)

	tr := s.Load().Trends[0]
	require.Equal(t, TrajectoryEmerging, tr.Trajectory)
	require.Equal(t, -1, tr.SignalCount)
	require.Len(t, tr.KeyEvents, 1)
}

func TestApplyIsAdditive(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())
	id := seedTrend(t, s, "Reasoning Models")

	update := TrendUpdate{UpdatedTrends: []TrendChange{{ID: id, SignalCountDelta: 5}}}
	_, err := s.Apply(update)
	require.NoError(t, err)
	_, err = s.Apply(update)
	require.NoError(t, err)

	require.Equal(t, 1+2*5, s.Load().Trends[0].SignalCount)
}

func TestApplyUnmatchedUpdateDropped(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())
	seedTrend(t, s, "Known")

	res, err := s.Apply(TrendUpdate{UpdatedTrends: []TrendChange{{ID: "ghost", SignalCountDelta: 9}}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Unmatched)
	require.Len(t, s.Load().Trends, 1)
}

func TestApplyCollisionDoesNotDuplicate(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())
	seedTrend(t, s, "Open Weights")
	before := len(s.Load().Trends)

	res, err := s.Apply(TrendUpdate{NewTrends: []NewTrend{
		{Name: "open weights", InitialTrajectory: TrajectoryDeclining},
		{Name: "Fresh Idea"},
		{Name: "fresh idea"},
	}})
	require.NoError(t, err)
	require.Equal(t, 2, res.Discarded)
	require.Equal(t, 1, res.Created)

	l := s.Load()
	require.Len(t, l.Trends, before+1)
	require.Equal(t, TrajectoryEmerging, l.Trends[0].Trajectory)
}

func TestApplyCannotUpdateAndCreateSameIDInOneBatch(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())

	res, err := s.Apply(TrendUpdate{
		UpdatedTrends: []TrendChange{{ID: "brand_new", SignalCountDelta: 4}},
		NewTrends:     []NewTrend{{Name: "Brand New"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Unmatched)
	require.Equal(t, 1, res.Created)
	require.Equal(t, 1, s.Load().Trends[0].SignalCount)
}

func TestWeeklyCountsCapped(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())
	id := seedTrend(t, s, "Capped")

	for i := 0; i < 30; i++ {
		_, err := s.Apply(TrendUpdate{UpdatedTrends: []TrendChange{{ID: id, SignalCountDelta: i}}})
		require.NoError(t, err)
	}
	tr := s.Load().Trends[0]
	require.Len(t, tr.WeeklyCounts, 12)
	require.Equal(t, 29, tr.WeeklyCounts[11])
	require.Equal(t, 18, tr.WeeklyCounts[0])
}

func TestIDNotRecomputedAfterRename(t *testing.T) {
	store, clk, _ := newTestEnv(t, "2026-02-23")
	s := NewTrendStore(store, clk, DefaultLimits())
	id := seedTrend(t, s, "Old Name")

	l := s.Load()
	l.Trends[0].Name = "Completely Different"
	require.NoError(t, store.Save(TrendsDocument, l))

	_, err := s.Apply(TrendUpdate{UpdatedTrends: []TrendChange{{ID: id, SignalCountDelta: 1}}})
	require.NoError(t, err)
	tr := s.Load().Trends[0]
	require.Equal(t, id, tr.ID)
	require.Equal(t, 2, tr.SignalCount)
}

func TestSummaries(t *testing.T) {
	l := TrendLedger{Trends: []Trend{
		{Name: "a", SignalCount: 1, Trajectory: TrajectoryStable},
		{Name: "b", SignalCount: 7, Trajectory: TrajectoryAccelerating},
		{Name: "c", SignalCount: 1, Trajectory: TrajectoryDormant},
	}}
	got := l.Summaries()
	require.Equal(t, []TrendSummary{
		{Name: "b", Trajectory: TrajectoryAccelerating, SignalCount: 7},
		{Name: "a", Trajectory: TrajectoryStable, SignalCount: 1},
		{Name: "c", Trajectory: TrajectoryDormant, SignalCount: 1},
	}, got)
}
