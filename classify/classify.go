// Package classify maps raw failures from vendor SDKs, the transport and the
// runtime into the closed core.ErrorKind taxonomy.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"

	"github.com/hupe1980/llmgate/core"
)

// Classify converts err into a classified error. A nil err yields nil and an
// already classified error is returned unchanged.
func Classify(err error) *core.Error {
	if err == nil {
		return nil
	}

	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}

	// Cancellation first: a cancelled request often surfaces wrapped in a
	// transport error.
	if errors.Is(err, context.Canceled) {
		return core.NewError(core.KindCancelled, "request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return timeout(err)
	}

	if code, msg, ok := statusOf(err); ok {
		e := core.NewError(KindForStatus(code), msg, err)
		e.StatusCode = code
		return e
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeout(err)
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return core.NewError(core.KindUpstreamMalformed, "malformed upstream payload: "+err.Error(), err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || netErr != nil || errors.Is(err, io.ErrUnexpectedEOF) {
		return core.NewError(core.KindNetworkFailure, err.Error(), err)
	}

	if kind, ok := kindFromMessage(err.Error()); ok {
		return core.NewError(kind, err.Error(), err)
	}

	return core.NewError(core.KindUnknown, fmt.Sprintf("%T: %v", err, err), err)
}

// IsCancelled reports whether err represents a user initiated stop.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, core.ErrCancelled)
}

// KindForStatus maps an upstream HTTP status code to an error kind.
func KindForStatus(code int) core.ErrorKind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return core.KindAuthFailure
	case code == http.StatusTooManyRequests:
		return core.KindRateLimited
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return core.KindNetworkFailure
	case code >= 500:
		return core.KindNetworkFailure
	case code >= 400:
		return core.KindInvalidRequest
	default:
		return core.KindUnknown
	}
}

func timeout(err error) *core.Error {
	e := core.NewError(core.KindNetworkFailure, "request timed out", err)
	e.Timeout = true
	return e
}

func statusOf(err error) (int, string, bool) {
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		msg := oaiErr.Message
		if msg == "" {
			msg = http.StatusText(oaiErr.StatusCode)
		}
		return oaiErr.StatusCode, msg, true
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		msg := http.StatusText(antErr.StatusCode)
		if antErr.Request != nil && antErr.Response != nil {
			msg = antErr.Error()
		}
		return antErr.StatusCode, msg, true
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		msg := gErr.Message
		if msg == "" {
			msg = gErr.Status
		}
		return gErr.Code, msg, true
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil {
		return gErrPtr.Code, gErrPtr.Message, true
	}

	return 0, "", false
}

// Mid-stream failures arrive as vendor error events without an HTTP status;
// their type names still tell the kind.
var messageKinds = []struct {
	pattern string
	kind    core.ErrorKind
}{
	{"rate_limit", core.KindRateLimited},
	{"rate limit", core.KindRateLimited},
	{"resource_exhausted", core.KindRateLimited},
	{"authentication_error", core.KindAuthFailure},
	{"permission_error", core.KindAuthFailure},
	{"invalid api key", core.KindAuthFailure},
	{"unauthenticated", core.KindAuthFailure},
	{"overloaded", core.KindNetworkFailure},
	{"api_error", core.KindNetworkFailure},
	{"connection reset", core.KindNetworkFailure},
	{"invalid_request", core.KindInvalidRequest},
	{"invalid stream chunk", core.KindUpstreamMalformed},
}

func kindFromMessage(msg string) (core.ErrorKind, bool) {
	lower := strings.ToLower(msg)
	for _, mk := range messageKinds {
		if strings.Contains(lower, mk.pattern) {
			return mk.kind, true
		}
	}
	return "", false
}
