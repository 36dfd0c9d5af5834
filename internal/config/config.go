package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/confkit"
	llmpkg "insight-memory/pkg/llm"
	"insight-memory/pkg/memory"
)

// RetentionConf bounds how long derived documents and upstream captures live.
type RetentionConf struct {
	DraftDays   int `json:",default=30"`
	SourcesDays int `json:",default=30"`
	CaptureDays int `json:",default=14"`
	// CaptureDir is relative to DataPath unless absolute.
	CaptureDir      string   `json:",default=x-monitor"`
	CapturePatterns []string `json:",optional"`
}

type Config struct {
	// Env indicates the running environment: test | dev | prod
	Env      string       `json:",default=test"`
	DataPath string       `json:",default=data"`
	Timezone string       `json:",default=Asia/Shanghai"`
	Log      logx.LogConf `json:",optional"`

	Memory    memory.Limits
	Retention RetentionConf

	LLM     confkit.Section[llmpkg.Config] `json:",optional"`
	Prompts string                         `json:",default=prompts"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the main config at path, then hydrates section files relative to
// its directory. DataPath, CaptureDir and Prompts are resolved to absolute
// paths the same way.
func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	if err := cfg.LLM.Hydrate(cfg.baseDir, llmpkg.LoadConfig); err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if strings.TrimSpace(c.DataPath) == "" {
		return errors.New("config: dataPath is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: unknown timezone %q: %w", c.Timezone, err)
	}
	if err := c.validateMemory(); err != nil {
		return err
	}
	return c.validateRetention()
}

func (c *Config) validateMemory() error {
	m := c.Memory
	if m.ArchivedWeeks < 0 || m.WeeklyCounts < 0 || m.KeyEvents < 0 || m.Predictions < 0 || m.TrendIDLength < 0 {
		return errors.New("config: memory limits cannot be negative")
	}
	return nil
}

func (c *Config) validateRetention() error {
	r := c.Retention
	if r.DraftDays < 0 {
		return errors.New("config: retention.draftDays cannot be negative")
	}
	if r.SourcesDays < 0 {
		return errors.New("config: retention.sourcesDays cannot be negative")
	}
	if r.CaptureDays < 0 {
		return errors.New("config: retention.captureDays cannot be negative")
	}
	return nil
}

func (c *Config) resolvePaths() {
	c.DataPath = confkit.ResolvePath(c.baseDir, c.DataPath)
	c.Retention.CaptureDir = confkit.ResolvePath(c.DataPath, c.Retention.CaptureDir)
	c.Prompts = confkit.ResolvePath(c.baseDir, c.Prompts)
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

// MemoryDir holds the weekly, trend and prediction documents.
func (c *Config) MemoryDir() string {
	return filepath.Join(c.DataPath, "memory")
}

// DraftsDir holds report drafts.
func (c *Config) DraftsDir() string {
	return filepath.Join(c.DataPath, "drafts")
}

// JournalDir holds trend proposal records.
func (c *Config) JournalDir() string {
	return filepath.Join(c.DataPath, "journal")
}

// DailyDir holds per-date briefs and sources.
func (c *Config) DailyDir() string {
	return filepath.Join(c.DataPath, "daily")
}
