package archive

import (
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
)

// SweepResult counts the files removed by a sweep.
type SweepResult struct {
	Sources  int
	Captures int
}

// Sweep removes sources documents older than sourcesDays (briefs are kept) and
// capture files older than captureDays. Both cutoffs compare plain date
// prefixes; capture files whose name does not start with a date are kept.
func (a *Archiver) Sweep(sourcesDays, captureDays int) (SweepResult, error) {
	var res SweepResult
	now := a.clock.Now()

	sourcesCutoff := now.AddDate(0, 0, -sourcesDays).Format(clock.DateLayout)
	days, err := a.daily.List("")
	if err != nil {
		return res, err
	}
	for _, e := range days {
		name := e.Name()
		if !e.IsDir() || len(name) != len(clock.DateLayout) || name >= sourcesCutoff {
			continue
		}
		doc := name + "/" + sourcesDocument
		if !a.daily.Exists(doc) {
			continue
		}
		if err := a.daily.Remove(doc); err != nil {
			return res, err
		}
		res.Sources++
	}

	captureCutoff := now.AddDate(0, 0, -captureDays).Format(clock.DateLayout)
	files, err := a.captures.List("")
	if err != nil {
		return res, err
	}
	for _, e := range files {
		name := e.Name()
		if e.IsDir() || !a.matchesCapture(name) || len(name) < len(clock.DateLayout) {
			continue
		}
		prefix := name[:len(clock.DateLayout)]
		if _, err := time.Parse(clock.DateLayout, prefix); err != nil || prefix >= captureCutoff {
			continue
		}
		if err := a.captures.Remove(name); err != nil {
			return res, err
		}
		res.Captures++
	}

	if res.Sources+res.Captures > 0 {
		logx.Infof("archive: cleanup removed %d sources and %d capture files", res.Sources, res.Captures)
	}
	return res, nil
}

func (a *Archiver) matchesCapture(name string) bool {
	for _, g := range a.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}
