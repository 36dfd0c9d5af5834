package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const completionBody = `{
	"id":"chatcmpl-1",
	"object":"chat.completion",
	"created":1730366400,
	"model":"openai/gpt-4o-mini",
	"choices":[
		{
			"index":0,
			"finish_reason":"stop",
			"logprobs":null,
			"message":{"role":"assistant","content":"  {\"ok\":true}  "}
		}
	],
	"usage":{"prompt_tokens":10,"completion_tokens":12,"total_tokens":22}
}`

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		DefaultModel: "trend",
		Timeout:      5 * time.Second,
		MaxRetries:   1,
		LogLevel:     "error",
		Models: map[string]ModelConfig{
			"trend": {Provider: "openai", ModelName: "gpt-4o-mini"},
		},
	}
}

func TestClientChat(t *testing.T) {
	var (
		mu        sync.Mutex
		lastBody  []byte
		lastPath  string
		callCount int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
		lastPath = r.URL.Path
		lastBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.Chat(ctx, &ChatRequest{
		Messages:       []Message{{Role: "system", Content: "be terse"}, {Role: "user", Content: "hi"}},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, resp.Content())
	require.Equal(t, 22, resp.Usage.TotalTokens)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/chat/completions", lastPath)
	require.Equal(t, 1, callCount)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(lastBody, &payload))
	require.Equal(t, "openai/gpt-4o-mini", payload["model"])
	require.Len(t, payload["messages"], 2)
	format, ok := payload["response_format"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "json_object", format["type"])
}

func TestClientChatRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL),
		WithHTTPClient(server.Client()),
		WithRetryHandler(NewRetryHandler(RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond})),
	)
	require.NoError(t, err)

	resp, err := client.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	require.Equal(t, "chatcmpl-1", resp.ID)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, calls)
}

func TestClientChatValidation(t *testing.T) {
	client, err := NewClient(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), nil)
	require.Error(t, err)

	_, err = client.Chat(context.Background(), &ChatRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one message")

	_, err = client.Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "x"}},
		ResponseFormat: &ResponseFormat{Type: "xml"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported response format")
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)

	cfg := testConfig("https://x")
	cfg.APIKey = ""
	_, err = NewClient(cfg)
	require.Error(t, err)
}

func TestGetConfigIsCopy(t *testing.T) {
	client, err := NewClient(testConfig("https://x"))
	require.NoError(t, err)
	cfg := client.GetConfig()
	cfg.APIKey = "mutated"
	require.Equal(t, "test-key", client.GetConfig().APIKey)
}
