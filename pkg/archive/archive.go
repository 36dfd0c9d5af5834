package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/gobwas/glob"
	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
)

const (
	briefDocument   = "brief.json"
	sourcesDocument = "sources.json"
)

// ErrNoArchive is returned when a date has no archived document.
var ErrNoArchive = errors.New("archive: document not found")

// RawItem is one collected item as handed over by the collectors.
type RawItem map[string]any

// Insight is an analysed signal that references raw items by index. Source
// references are kept as received.
type Insight struct {
	Title          string            `json:"title"`
	SignalText     string            `json:"signal_text"`
	SignalStrength float64           `json:"signal_strength"`
	Insight        string            `json:"insight"`
	Implication    string            `json:"implication"`
	Category       string            `json:"category"`
	Sources        []json.RawMessage `json:"sources"`
	Tags           []string          `json:"tags"`
	RawItemIndices []json.RawMessage `json:"raw_item_indices,omitempty"`
}

// BriefInsight is the index-free projection kept in the permanent brief.
type BriefInsight struct {
	Title          string            `json:"title"`
	SignalText     string            `json:"signal_text"`
	SignalStrength float64           `json:"signal_strength"`
	Insight        string            `json:"insight"`
	Implication    string            `json:"implication"`
	Category       string            `json:"category"`
	Sources        []json.RawMessage `json:"sources"`
	Tags           []string          `json:"tags"`
}

// Indices returns the raw item indices that are plain integers.
func (in Insight) Indices() []int {
	out := make([]int, 0, len(in.RawItemIndices))
	for _, raw := range in.RawItemIndices {
		var idx int
		if err := json.Unmarshal(raw, &idx); err == nil {
			out = append(out, idx)
		}
	}
	return out
}

// Brief is the permanent per-day record.
type Brief struct {
	Date         string         `json:"date"`
	SignalCount  int            `json:"signal_count"`
	RawItemCount int            `json:"raw_item_count"`
	Insights     []BriefInsight `json:"insights"`
	TrendSummary string         `json:"trend_summary"`
}

// Sources holds the raw items referenced by at least one insight, each tagged
// with its original index.
type Sources struct {
	Date      string    `json:"date"`
	ItemCount int       `json:"item_count"`
	Items     []RawItem `json:"items"`
}

// Archiver writes per-day archives and sweeps expired files.
type Archiver struct {
	daily    *docstore.Store
	captures *docstore.Store
	clock    *clock.Clock
	patterns []glob.Glob
}

// New constructs an archiver. patterns select which files in captureDir the
// sweep may delete; an empty list selects "*.json".
func New(dailyDir, captureDir string, clk *clock.Clock, patterns []string) (*Archiver, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.json"}
	}
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("archive: compile capture pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}
	return &Archiver{
		daily:    docstore.New(dailyDir),
		captures: docstore.New(captureDir),
		clock:    clk,
		patterns: compiled,
	}, nil
}

func validDate(date string) error {
	if _, err := time.Parse(clock.DateLayout, date); err != nil {
		return fmt.Errorf("archive: invalid date %q: %w", date, err)
	}
	return nil
}

// Archive writes daily/{date}/brief.json and daily/{date}/sources.json.
// Out-of-range and non-integer indices are ignored.
func (a *Archiver) Archive(date string, raw []RawItem, insights []Insight, trendSummary string) (*Brief, *Sources, error) {
	if err := validDate(date); err != nil {
		return nil, nil, err
	}

	referenced := make(map[int]struct{})
	for _, in := range insights {
		for _, idx := range in.Indices() {
			if idx >= 0 && idx < len(raw) {
				referenced[idx] = struct{}{}
			}
		}
	}
	indices := make([]int, 0, len(referenced))
	for idx := range referenced {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	items := make([]RawItem, 0, len(indices))
	for _, idx := range indices {
		item := make(RawItem, len(raw[idx])+1)
		for k, v := range raw[idx] {
			item[k] = v
		}
		item["index"] = idx
		items = append(items, item)
	}

	brief := &Brief{
		Date:         date,
		SignalCount:  len(insights),
		RawItemCount: len(raw),
		Insights:     make([]BriefInsight, 0, len(insights)),
		TrendSummary: trendSummary,
	}
	for _, in := range insights {
		brief.Insights = append(brief.Insights, BriefInsight{
			Title:          in.Title,
			SignalText:     in.SignalText,
			SignalStrength: in.SignalStrength,
			Insight:        in.Insight,
			Implication:    in.Implication,
			Category:       in.Category,
			Sources:        nonNil(in.Sources),
			Tags:           nonNil(in.Tags),
		})
	}
	sources := &Sources{Date: date, ItemCount: len(items), Items: items}

	if err := a.daily.Save(date+"/"+briefDocument, brief); err != nil {
		return nil, nil, err
	}
	if err := a.daily.Save(date+"/"+sourcesDocument, sources); err != nil {
		return nil, nil, err
	}
	logx.Infof("archive: %d insights, %d source items -> %s", len(brief.Insights), len(items), date)
	return brief, sources, nil
}

// LoadBrief reads the permanent brief of a date.
func (a *Archiver) LoadBrief(date string) (*Brief, error) {
	var b Brief
	if err := a.read(date, briefDocument, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadSources reads the sources document of a date.
func (a *Archiver) LoadSources(date string) (*Sources, error) {
	var s Sources
	if err := a.read(date, sourcesDocument, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *Archiver) read(date, doc string, dst any) error {
	if err := validDate(date); err != nil {
		return err
	}
	err := a.daily.Read(date+"/"+doc, dst)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrNoArchive, date, doc)
	}
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
