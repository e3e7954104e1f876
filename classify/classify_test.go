package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/hupe1980/llmgate/core"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	var syntaxErr *json.SyntaxError
	err := json.Unmarshal([]byte("{"), &map[string]any{})
	require.ErrorAs(t, err, &syntaxErr)

	tests := []struct {
		name    string
		err     error
		kind    core.ErrorKind
		status  int
		timeout bool
	}{
		{"cancelled", context.Canceled, core.KindCancelled, 0, false},
		{"wrapped cancel", fmt.Errorf("read: %w", context.Canceled), core.KindCancelled, 0, false},
		{"deadline", context.DeadlineExceeded, core.KindNetworkFailure, 0, true},
		{"openai 401", &openai.Error{StatusCode: 401, Message: "bad key"}, core.KindAuthFailure, 401, false},
		{"openai 429", &openai.Error{StatusCode: 429}, core.KindRateLimited, 429, false},
		{"openai 400", &openai.Error{StatusCode: 400}, core.KindInvalidRequest, 400, false},
		{"openai 503", &openai.Error{StatusCode: 503}, core.KindNetworkFailure, 503, false},
		{"anthropic 403", &anthropic.Error{StatusCode: 403}, core.KindAuthFailure, 403, false},
		{"anthropic 529", fmt.Errorf("stream: %w", &anthropic.Error{StatusCode: 529}), core.KindNetworkFailure, 529, false},
		{"genai 429", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, core.KindRateLimited, 429, false},
		{"genai 404", genai.APIError{Code: 404}, core.KindInvalidRequest, 404, false},
		{"net timeout", timeoutErr{}, core.KindNetworkFailure, 0, true},
		{"url error", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, core.KindNetworkFailure, 0, false},
		{"json", syntaxErr, core.KindUpstreamMalformed, 0, false},
		{"stream event", errors.New(`received error while streaming: {"type":"overloaded_error"}`), core.KindNetworkFailure, 0, false},
		{"message rate limit", errors.New("Rate limit reached"), core.KindRateLimited, 0, false},
		{"unknown", errors.New("something odd"), core.KindUnknown, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.timeout, got.Timeout)
			assert.Equal(t, tt.err, got.Cause)
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	assert.Nil(t, Classify(nil))

	orig := core.Errorf(core.KindInvalidRequest, "unknown vendor")
	assert.Same(t, orig, Classify(fmt.Errorf("registry: %w", orig)))
}

func TestClassify_SentinelMatch(t *testing.T) {
	err := Classify(&openai.Error{StatusCode: http.StatusTooManyRequests})
	assert.ErrorIs(t, err, core.ErrRateLimited)
	assert.NotErrorIs(t, err, core.ErrAuthFailure)
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(context.Canceled))
	assert.True(t, IsCancelled(core.Errorf(core.KindCancelled, "stop")))
	assert.False(t, IsCancelled(context.DeadlineExceeded))
	assert.False(t, IsCancelled(nil))
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, core.KindInvalidRequest, KindForStatus(422))
	assert.Equal(t, core.KindNetworkFailure, KindForStatus(504))
	assert.Equal(t, core.KindUnknown, KindForStatus(302))
}
