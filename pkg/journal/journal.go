package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
)

const (
	filePrefix  = "proposal_"
	stampLayout = "20060102_150405"
	maxAttempts = 1000
)

// ProposalRecord captures one trend-update round trip for later audit: what
// the model was shown, what it replied and whether the reply was usable.
type ProposalRecord struct {
	Timestamp    string          `json:"timestamp"`
	Sequence     int             `json:"sequence"`
	Week         string          `json:"week"`
	PromptDigest string          `json:"prompt_digest,omitempty"`
	Model        string          `json:"model,omitempty"`
	SignalCount  int             `json:"signal_count"`
	Reply        string          `json:"reply,omitempty"`
	Update       json.RawMessage `json:"update,omitempty"`
	Parsed       bool            `json:"parsed"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Writer persists proposal records as individual JSON files.
type Writer struct {
	docs  *docstore.Store
	clock *clock.Clock

	mu  sync.Mutex
	seq int
}

// NewWriter constructs a journal writer over docs.
func NewWriter(docs *docstore.Store, clk *clock.Clock) *Writer {
	return &Writer{docs: docs, clock: clk}
}

// Write stamps rec and stores it under a timestamped, sequenced name. A name
// already on disk, for instance from an earlier run in the same second, is
// never replaced: the sequence advances until a free name is found.
func (w *Writer) Write(rec *ProposalRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	now := w.clock.Now()
	rec.Timestamp = now.Format(time.RFC3339)
	if rec.Week == "" {
		rec.Week = clock.WeekID(now)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for i := 0; i < maxAttempts; i++ {
		w.seq++
		rec.Sequence = w.seq
		name := fmt.Sprintf("%s%s_%05d.json", filePrefix, now.Format(stampLayout), rec.Sequence)
		err := w.docs.Create(name, rec)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("journal: no free record name at %s", now.Format(stampLayout))
}

// Sweep removes records written more than olderThanDays ago.
func (w *Writer) Sweep(olderThanDays int) (int, error) {
	entries, err := w.docs.List("")
	if err != nil {
		return 0, err
	}
	cutoff := w.clock.Now().AddDate(0, 0, -olderThanDays).Format("20060102")

	deleted := 0
	for _, e := range entries {
		day, ok := recordDay(e.Name())
		if e.IsDir() || !ok || day >= cutoff {
			continue
		}
		if err := w.docs.Remove(e.Name()); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		logx.Infof("journal: removed %d proposal records", deleted)
	}
	return deleted, nil
}

func recordDay(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, filePrefix)
	if !ok || len(rest) < len("20060102") {
		return "", false
	}
	return rest[:len("20060102")], true
}
