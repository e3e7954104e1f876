package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/internal/testutil"
)

func openAIChunk(delta map[string]any, finish any) map[string]any {
	return map[string]any{
		"id": "chatcmpl-1", "object": "chat.completion.chunk", "created": 1, "model": "gpt-test",
		"choices": []any{map[string]any{"index": 0, "delta": delta, "finish_reason": finish}},
	}
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llmgate.toml")
	data := fmt.Sprintf(`
default = "local"

[logging]
level = "error"
format = "text"

[providers.local]
vendor = "openai"
model = "gpt-test"
api_key = "sk-test"
base_url = %q

[providers.claude]
vendor = "anthropic"
model = "claude-sonnet-4-5"
api_key = "k"
`, baseURL)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func run(t *testing.T, a *app, stdin string, args ...string) (string, string, error) {
	t.Helper()
	httpClient := &http.Client{}
	t.Cleanup(httpClient.CloseIdleConnections)
	a.httpClient = httpClient

	var out, errOut bytes.Buffer
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func streamingServer(t *testing.T) *testutil.SSEServer {
	return testutil.NewSSEServer(t, func(w *testutil.SSEWriter, r *http.Request) {
		w.Data(openAIChunk(map[string]any{"role": "assistant", "content": "Hello"}, nil))
		w.Data(openAIChunk(map[string]any{"content": " there"}, "stop"))
		w.Data(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion.chunk", "created": 1, "model": "gpt-test",
			"choices": []any{},
			"usage":   map[string]any{"prompt_tokens": 4, "completion_tokens": 2, "total_tokens": 6},
		})
		w.Raw("[DONE]")
	})
}

func TestProviders(t *testing.T) {
	out, _, err := run(t, newApp(), "", "providers", "--config", writeConfig(t, "http://localhost:1"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "VENDOR")
	assert.Contains(t, lines[1], "claude")
	assert.Contains(t, lines[2], "local *")
	assert.Contains(t, lines[2], "http://localhost:1")
	assert.NotContains(t, out, "sk-test")
}

func TestChat_StreamsText(t *testing.T) {
	srv := streamingServer(t)

	out, errOut, err := run(t, newApp(), "", "chat", "-c", writeConfig(t, srv.URL), "-s", "Be terse", "say", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there\n", out)
	assert.Contains(t, errOut, "tokens: in=4 out=2 total=6")

	rec := srv.LastRequest(t)
	msgs := rec.Body["messages"].([]any)
	assert.Equal(t, "Be terse", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "say hi", msgs[1].(map[string]any)["content"])
}

func TestChat_JSONFromStdin(t *testing.T) {
	srv := streamingServer(t)

	out, _, err := run(t, newApp(), "from stdin\n", "chat", "--json", "-c", writeConfig(t, srv.URL), "-m", "gpt-other")
	require.NoError(t, err)

	var kinds []core.EventKind
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var ev core.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []core.EventKind{core.EventText, core.EventText, core.EventDone}, kinds)
	assert.Equal(t, "gpt-other", srv.LastRequest(t).Body["model"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestJSONLines_KeepsFirstWriteError(t *testing.T) {
	var stops int
	j := &jsonLines{enc: json.NewEncoder(failingWriter{}), onError: func() { stops++ }}

	j.write(core.NewTextEvent("r1", "a"))
	j.write(core.NewTextEvent("r1", "b"))

	require.Error(t, j.err)
	assert.Contains(t, j.err.Error(), "broken pipe")
	assert.Equal(t, 1, stops)
}

func TestChat_JSONWriteErrorIsReturned(t *testing.T) {
	srv := streamingServer(t)
	a := newApp()
	httpClient := &http.Client{}
	t.Cleanup(httpClient.CloseIdleConnections)
	a.httpClient = httpClient

	var errOut bytes.Buffer
	root := newRootCmd(a)
	root.SetArgs([]string{"chat", "--json", "-c", writeConfig(t, srv.URL), "hi"})
	root.SetOut(failingWriter{})
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write event")
}

func TestChat_UpstreamError(t *testing.T) {
	srv := testutil.NewStatusServer(t, http.StatusUnauthorized, map[string]any{
		"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
	})

	_, _, err := run(t, newApp(), "", "chat", "-c", writeConfig(t, srv.URL), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAuthFailure)
}

func TestChat_Errors(t *testing.T) {
	cfg := writeConfig(t, "http://localhost:1")

	_, _, err := run(t, newApp(), "", "chat", "-c", cfg, "-p", "missing", "hi")
	assert.EqualError(t, err, `unknown provider "missing"`)

	_, _, err = run(t, newApp(), "  ", "chat", "-c", cfg)
	assert.EqualError(t, err, "empty prompt")

	_, _, err = run(t, newApp(), "", "providers", "-c", filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
