// Package llm abstracts "given a prompt, return text conforming to a
// schema, with bounded retries." The core never takes a dependency on a
// particular vendor's interface shape — callers only see Provider and
// Outcome.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Provider is the interface every LLM backend implements.
type Provider interface {
	// Generate sends a single prompt+system-prompt pair and returns the
	// raw text response.
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// OutcomeKind classifies a call to a Provider.
type OutcomeKind int

const (
	// KindOK means the provider returned text; it may or may not be
	// schema-conformant — that is checked by the caller (svi.Parse or
	// the memo package's equivalent).
	KindOK OutcomeKind = iota
	// KindTransient means a retryable upstream failure (5xx, timeout,
	// network error) occurred.
	KindTransient
	// KindPermanent means a non-retryable failure occurred (4xx other
	// than rate limiting, or a malformed request).
	KindPermanent
)

// Outcome is the result of one Provider call, classified for retry
// routing.
type Outcome struct {
	Kind    OutcomeKind
	Payload string
	Err     error
}

// httpStatusError lets HTTP-backed providers (DeepSeekProvider) report a
// status code so Classify can route 5xx to KindTransient.
type httpStatusError struct {
	StatusCode int
	Err        error
}

func (e *httpStatusError) Error() string { return e.Err.Error() }
func (e *httpStatusError) Unwrap() error { return e.Err }

// NewHTTPStatusError wraps an error with its HTTP status code so
// Classify can route it correctly.
func NewHTTPStatusError(statusCode int, err error) error {
	return &httpStatusError{StatusCode: statusCode, Err: err}
}

// Classify maps a raw Provider error into an Outcome.
func Classify(payload string, err error) Outcome {
	if err == nil {
		return Outcome{Kind: KindOK, Payload: payload}
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 500 || statusErr.StatusCode == 429 {
			return Outcome{Kind: KindTransient, Err: err}
		}
		return Outcome{Kind: KindPermanent, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Outcome{Kind: KindTransient, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Outcome{Kind: KindTransient, Err: err}
	}

	return Outcome{Kind: KindPermanent, Err: err}
}

// transientBackoff is the fixed 1s, 2s retry schedule for transient
// provider failures.
var transientBackoff = []time.Duration{1 * time.Second, 2 * time.Second}

// CallWithRetry invokes provider.Generate, retrying up to
// len(transientBackoff) additional times when the failure is classified
// as transient. A non-transient failure or exhausted retries returns the
// last Outcome.
func CallWithRetry(ctx context.Context, provider Provider, systemPrompt, userPrompt string) Outcome {
	var last Outcome
	for attempt := 0; attempt <= len(transientBackoff); attempt++ {
		text, err := provider.Generate(ctx, systemPrompt, userPrompt)
		last = Classify(text, err)
		if last.Kind != KindTransient {
			return last
		}
		if attempt == len(transientBackoff) {
			break
		}
		select {
		case <-ctx.Done():
			return Outcome{Kind: KindTransient, Err: fmt.Errorf("call with retry: %w", ctx.Err())}
		case <-time.After(transientBackoff[attempt]):
		}
	}
	return last
}

// classifyHTTPResponse is a small helper HTTP-backed providers can use
// to turn a non-2xx response into a classifiable error.
func classifyHTTPResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return NewHTTPStatusError(resp.StatusCode, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body)))
}
