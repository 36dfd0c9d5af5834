package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/journal"
	"insight-memory/pkg/llm"
	"insight-memory/pkg/memory"
	"insight-memory/pkg/prompt"
)

const (
	defaultMaxTrends = 50
	defaultMaxTokens = 2048
	systemPrompt     = "You maintain a ledger of technology trends. Reply with a single JSON object and nothing else."
)

// ErrNoClient is returned when proposing without a configured LLM.
var ErrNoClient = errors.New("insight: llm client is not configured")

// signalView is the projection of a signal shown to the model.
type signalView struct {
	Title          string   `json:"title"`
	Tags           []string `json:"tags"`
	SignalStrength float64  `json:"signal_strength"`
}

// TrendProposer asks the model for trend ledger deltas derived from a batch of
// signals. It owns no merge logic: deltas are applied by memory.TrendStore.
type TrendProposer struct {
	client    llm.LLMClient
	tmpl      *prompt.Template
	trends    *memory.TrendStore
	journal   *journal.Writer
	model     string
	maxTrends int
}

// ProposerOption customises a TrendProposer.
type ProposerOption func(*TrendProposer)

// WithModel selects a model alias from the llm config.
func WithModel(alias string) ProposerOption {
	return func(p *TrendProposer) { p.model = alias }
}

// WithMaxTrends bounds how many trends the model is told to keep.
func WithMaxTrends(n int) ProposerOption {
	return func(p *TrendProposer) {
		if n > 0 {
			p.maxTrends = n
		}
	}
}

// WithJournal records every round trip, usable or not.
func WithJournal(w *journal.Writer) ProposerOption {
	return func(p *TrendProposer) { p.journal = w }
}

// NewTrendProposer wires a proposer. client may be nil, in which case Propose
// returns ErrNoClient.
func NewTrendProposer(client llm.LLMClient, tmpl *prompt.Template, trends *memory.TrendStore, opts ...ProposerOption) *TrendProposer {
	p := &TrendProposer{
		client:    client,
		tmpl:      tmpl,
		trends:    trends,
		maxTrends: defaultMaxTrends,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propose renders the trend-update prompt and parses the reply. ok is false
// when there is nothing to propose or the reply was not a usable JSON object;
// the latter is logged and skipped rather than returned as an error.
func (p *TrendProposer) Propose(ctx context.Context, signals []memory.Signal) (update memory.TrendUpdate, ok bool, err error) {
	if len(signals) == 0 {
		return memory.TrendUpdate{}, false, nil
	}
	if p.client == nil {
		return memory.TrendUpdate{}, false, ErrNoClient
	}

	text, err := p.render(signals)
	if err != nil {
		return memory.TrendUpdate{}, false, err
	}

	rec := &journal.ProposalRecord{
		PromptDigest: p.tmpl.Digest(),
		Model:        p.model,
		SignalCount:  len(signals),
	}
	defer p.record(ctx, rec)

	maxTokens := defaultMaxTokens
	resp, err := p.client.Chat(ctx, &llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:      &maxTokens,
		ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		rec.ErrorMessage = err.Error()
		return memory.TrendUpdate{}, false, fmt.Errorf("insight: trend update request: %w", err)
	}

	rec.Reply = resp.Content()
	if rec.Reply == "" {
		rec.ErrorMessage = "empty reply"
		logx.WithContext(ctx).Infof("trend update skipped: empty reply (prompt %s)", rec.PromptDigest)
		return memory.TrendUpdate{}, false, nil
	}
	if err := llm.ParseStructured(rec.Reply, &update); err != nil {
		rec.ErrorMessage = err.Error()
		logx.WithContext(ctx).Infof("trend update skipped: %v (prompt %s)", err, rec.PromptDigest)
		return memory.TrendUpdate{}, false, nil
	}
	rec.Parsed = true
	rec.Update, _ = json.Marshal(update)
	return update, true, nil
}

func (p *TrendProposer) record(ctx context.Context, rec *journal.ProposalRecord) {
	if p.journal == nil {
		return
	}
	if _, err := p.journal.Write(rec); err != nil {
		logx.WithContext(ctx).Errorf("journal proposal: %v", err)
	}
}

// ProposeAndApply proposes deltas for signals and merges them into the ledger.
func (p *TrendProposer) ProposeAndApply(ctx context.Context, signals []memory.Signal) (memory.ApplyResult, bool, error) {
	update, ok, err := p.Propose(ctx, signals)
	if err != nil || !ok {
		return memory.ApplyResult{}, false, err
	}
	res, err := p.trends.Apply(update)
	if err != nil {
		return memory.ApplyResult{}, false, err
	}
	return res, true, nil
}

func (p *TrendProposer) render(signals []memory.Signal) (string, error) {
	views := make([]signalView, 0, len(signals))
	for _, s := range signals {
		f := s.Fields()
		tags := f.Tags
		if tags == nil {
			tags = []string{}
		}
		views = append(views, signalView{Title: f.Title, Tags: tags, SignalStrength: f.SignalStrength})
	}
	schema, err := llm.GenerateSchema(memory.TrendUpdate{})
	if err != nil {
		return "", err
	}
	ledger := p.trends.Load()
	return p.tmpl.Render(map[string]any{
		"MaxTrends":     p.maxTrends,
		"CurrentTrends": ledger.Trends,
		"TodaySignals":  views,
		"Schema":        schema,
	})
}
