package llm

import (
	"context"
	"fmt"
	"os"
	"time"
)

// RequestEntry captures one model request for the durable request log.
type RequestEntry struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RequestLog receives one entry per model request. The progress store
// implements this; a nil log disables durable logging.
type RequestLog interface {
	AppendLLMRequest(ctx context.Context, entry RequestEntry) error
}

// loggingProvider decorates a Provider, recording every request.
type loggingProvider struct {
	inner Provider
	name  string
	log   RequestLog
}

// WithLogging wraps a Provider with request logging. name is the
// backend name (openai, anthropic, gemini) recorded on each entry.
func WithLogging(p Provider, name string, log RequestLog) Provider {
	return &loggingProvider{inner: p, name: name, log: log}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	entry := RequestEntry{
		Provider:  l.name,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		entry.InputTokens = resp.Usage.InputTokens
		entry.OutputTokens = resp.Usage.OutputTokens
		entry.Model = resp.Model
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}

	// Logging is best-effort; a failed append never fails the request.
	if l.log != nil {
		if logErr := l.log.AppendLLMRequest(ctx, entry); logErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to log LLM request: %v\n", logErr)
		}
	}

	return resp, err
}

func (l *loggingProvider) ModelID() string {
	return l.inner.ModelID()
}
