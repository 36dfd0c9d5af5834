package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/internal/config"
	"insight-memory/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	patterns := cfg.Retention.CapturePatterns
	if len(patterns) == 0 {
		patterns = []string{"*.json"}
	}
	m, r := cfg.Memory, cfg.Retention
	return []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Data path: %s", cfg.DataPath),
		fmt.Sprintf("Timezone: %s", cfg.Timezone),
		fmt.Sprintf("Memory (weeks/counts/events/predictions): %d / %d / %d / %d",
			m.ArchivedWeeks, m.WeeklyCounts, m.KeyEvents, m.Predictions),
		fmt.Sprintf("Retention days (drafts/sources/captures): %d / %d / %d",
			r.DraftDays, r.SourcesDays, r.CaptureDays),
		fmt.Sprintf("Captures: %s [%s]", r.CaptureDir, strings.Join(patterns, ", ")),
		sectionLine("LLM config", cfg.LLM),
		fmt.Sprintf("Prompts: %s", cfg.Prompts),
	}
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	logx.Info("configuration summary")
	for _, line := range ConfigSummaryLines(cfg) {
		logx.Infof("config • %s", line)
	}
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
