package memory

import (
	"testing"
	"time"

	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
)

// fakeNow is a settable wall clock for tests.
type fakeNow struct {
	t time.Time
}

func (f *fakeNow) now() time.Time { return f.t }

func (f *fakeNow) set(date string) {
	t, err := time.ParseInLocation(clock.DateLayout, date, time.UTC)
	if err != nil {
		panic(err)
	}
	f.t = t.Add(9 * time.Hour)
}

func newTestEnv(t *testing.T, date string) (*docstore.Store, *clock.Clock, *fakeNow) {
	t.Helper()
	fn := &fakeNow{}
	fn.set(date)
	return docstore.New(t.TempDir()), clock.New(time.UTC, fn.now), fn
}

func signals(prefix string, n int) []Signal {
	out := make([]Signal, n)
	for i := range out {
		s, err := NewSignal(map[string]any{"title": prefix, "signal_strength": i})
		if err != nil {
			panic(err)
		}
		out[i] = s
	}
	return out
}

func batchOf(t *testing.T, days Days, date string) []Signal {
	t.Helper()
	b, ok := days.Get(date)
	if !ok {
		t.Fatalf("no batch for %s", date)
	}
	return b
}
