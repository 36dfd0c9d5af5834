package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"insight-memory/internal/svc"
	"insight-memory/pkg/clock"
)

type harness struct {
	t      *testing.T
	config string
	data   string
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("INSIGHT_NO_DOTENV", "1")
	dir := t.TempDir()
	prompts, err := filepath.Abs(filepath.Join("..", "..", "etc", "prompts"))
	require.NoError(t, err)

	h := &harness{t: t, data: filepath.Join(dir, "data"), now: time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC)}
	h.config = filepath.Join(dir, "insight.yaml")
	body := fmt.Sprintf("Timezone: UTC\nDataPath: %s\nPrompts: %s\nLog:\n  Level: error\n", h.data, prompts)
	require.NoError(t, os.WriteFile(h.config, []byte(body), 0o600))
	return h
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	clk := clock.New(time.UTC, func() time.Time { return h.now })
	cmd := newRootCmd(strings.NewReader(stdin), &out, svc.WithClock(clk))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"-f", h.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	require.NoError(h.t, err)
	return out
}

func TestWeekCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(`[{"title":"a","signal_strength":0.9,"insight":"why","sources":[{"name":"HN","url":"https://x"}]}]`, "week", "append", "--date", "2026-02-23")
	h.mustRun(`[{"title":"b","signal_strength":0.4}]`, "week", "append", "--date", "2026-02-24")

	var flat []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "week", "show", "--flat")), &flat))
	require.Len(t, flat, 2)
	require.Equal(t, "a", flat[0]["title"])
	require.Equal(t, "why", flat[0]["insight"])
	require.Equal(t, []any{map[string]any{"name": "HN", "url": "https://x"}}, flat[0]["sources"])

	h.mustRun("", "week", "rotate")
	var ledger map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "week", "show")), &ledger))
	require.Nil(t, ledger["current_week"])
	require.Len(t, ledger["archived_weeks"], 1)
}

func TestTrendAndPredictionCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(`{"new_trends":[{"name":"Agent Frameworks","related_tags":["agents"]}]}`, "trends", "apply")
	out := h.mustRun(`{"updated_trends":[{"id":"agent_frameworks","signal_count_delta":3,"new_key_event":"v1 shipped"},{"id":"ghost","signal_count_delta":1}]}`, "trends", "apply")
	require.Contains(t, out, `"Unmatched": 1`)

	var summaries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("", "trends", "show", "--summary")), &summaries))
	require.Equal(t, float64(4), summaries[0]["signal_count"])

	_, err := h.run("", "trends", "propose")
	require.ErrorContains(t, err, "llm client is not configured")

	h.mustRun("", "predictions", "add", "--text", "Agents replace RPA", "--category", "ai")
	out = h.mustRun("", "predictions", "recent", "--weeks", "1")
	require.Contains(t, out, "Agents replace RPA")

	_, err = h.run("", "predictions", "add")
	require.Error(t, err)
}

func TestDraftCommands(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(`{"headline":"Daily"}`, "draft", "save", "--period", "2026-02-23")
	require.Contains(t, out, `"written": true`)

	h.mustRun("", "draft", "status", "--period", "2026-02-23", "approved")
	out = h.mustRun(`{"headline":"Rewrite"}`, "draft", "save", "--period", "2026-02-23")
	require.Contains(t, out, `"written": false`)
	require.Contains(t, out, "Daily")

	out = h.mustRun("", "draft", "list", "--status", "approved")
	require.Contains(t, out, "2026-02-23\\tdaily\\tapproved")

	_, err := h.run("", "draft", "show", "--period", "2026-02-24")
	require.ErrorContains(t, err, "not found")

	_, err = h.run("", "draft", "status", "--period", "2026-02-23", "published")
	require.Error(t, err)
}

func TestArchiveAndCleanup(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw.json")
	insights := filepath.Join(dir, "insights.json")
	require.NoError(t, os.WriteFile(raw, []byte(`[{"title":"x"},{"title":"y"}]`), 0o600))
	require.NoError(t, os.WriteFile(insights, []byte(`[{"title":"i","sources":[{"name":"HN","url":"https://x"}],"raw_item_indices":[1]}]`), 0o600))

	h.now = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	out := h.mustRun("", "archive", "--raw", raw, "--insights", insights, "--trend-summary", "quiet day")
	require.Contains(t, out, `"source_items": 1`)
	h.mustRun(`{"headline":"old"}`, "draft", "save", "--period", "2026-01-01")

	h.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out = h.mustRun("", "cleanup")
	require.Contains(t, out, `"drafts": 1`)
	require.Contains(t, out, `"sources": 1`)

	_, err := os.Stat(filepath.Join(h.data, "daily", "2026-01-01", "brief.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(h.data, "daily", "2026-01-01", "sources.json"))
	require.True(t, os.IsNotExist(err))
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("INSIGHT_NO_DOTENV", "1")
	cmd := newRootCmd(strings.NewReader(""), &bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-f", filepath.Join(t.TempDir(), "absent.yaml"), "week", "show"})
	require.Error(t, cmd.Execute())
}
