package svc

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/internal/config"
	"insight-memory/pkg/archive"
	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
	"insight-memory/pkg/draft"
	"insight-memory/pkg/insight"
	"insight-memory/pkg/journal"
	llmpkg "insight-memory/pkg/llm"
	"insight-memory/pkg/memory"
	"insight-memory/pkg/prompt"
)

// ServiceContext owns every store built from a loaded config.
type ServiceContext struct {
	Config config.Config
	Clock  *clock.Clock

	Weekly      *memory.WeeklyAccumulator
	Trends      *memory.TrendStore
	Predictions *memory.PredictionLog
	Drafts      *draft.Store
	Archive     *archive.Archiver
	Journal     *journal.Writer

	// LLM and Proposer are nil when no llm section is configured.
	LLM      llmpkg.LLMClient
	Proposer *insight.TrendProposer
}

// Option overrides parts of the wiring, mainly for tests.
type Option func(*options)

type options struct {
	clock  *clock.Clock
	client llmpkg.LLMClient
}

// WithClock replaces the zone clock derived from Config.Timezone.
func WithClock(clk *clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithLLMClient injects a client instead of building one from Config.LLM.
func WithLLMClient(client llmpkg.LLMClient) Option {
	return func(o *options) { o.client = client }
}

func NewServiceContext(c config.Config, opts ...Option) (*ServiceContext, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clk := o.clock
	if clk == nil {
		var err error
		if clk, err = clock.Load(c.Timezone); err != nil {
			return nil, err
		}
	}

	memDocs := docstore.New(c.MemoryDir())
	archiver, err := archive.New(c.DailyDir(), c.Retention.CaptureDir, clk, c.Retention.CapturePatterns)
	if err != nil {
		return nil, fmt.Errorf("build archiver: %w", err)
	}

	svc := &ServiceContext{
		Config:      c,
		Clock:       clk,
		Weekly:      memory.NewWeeklyAccumulator(memDocs, clk, c.Memory),
		Trends:      memory.NewTrendStore(memDocs, clk, c.Memory),
		Predictions: memory.NewPredictionLog(memDocs, clk, c.Memory),
		Drafts:      draft.NewStore(docstore.New(c.DraftsDir()), clk, c.Retention.DraftDays),
		Archive:     archiver,
		Journal:     journal.NewWriter(docstore.New(c.JournalDir()), clk),
	}

	client := o.client
	if client == nil && c.LLM.Enabled() {
		llmCfg := c.LLM.Value.Clone()
		built, err := llmpkg.NewClient(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("build llm client: %w", err)
		}
		client = built
	}
	if client != nil {
		tmpl, err := prompt.Load(c.Prompts, prompt.TrendUpdateTemplate)
		if err != nil {
			return nil, err
		}
		svc.LLM = client
		svc.Proposer = insight.NewTrendProposer(client, tmpl, svc.Trends, insight.WithJournal(svc.Journal))
		logx.Infof("trend proposer ready (prompt %s)", tmpl.Digest())
	}
	return svc, nil
}

// Close releases the LLM client, if any.
func (s *ServiceContext) Close() error {
	if s.LLM == nil {
		return nil
	}
	return s.LLM.Close()
}
