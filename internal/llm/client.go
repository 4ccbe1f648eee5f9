// Package llm holds the completion backends, prompt assembly and response
// normalization shared by every generation feature. Exactly one backend is
// active per process, selected by configuration.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"aurenlm-backend/internal/config"
)

// Error kinds. Every backend failure is classified into one of these so
// handlers can map them to distinguishable response codes.
const (
	KindTimeout     = "timeout"
	KindUnavailable = "unavailable"
	KindBadStatus   = "bad_status"
	KindBadPayload  = "bad_payload"
)

// Error is the only error type completion backends return.
type Error struct {
	Kind    string
	Message string
	Body    string // raw response body for bad_status, truncated
}

func (e *Error) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("llm %s: %s: %s", e.Kind, e.Message, e.Body)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

// classify turns a transport error from http.Client.Do into an *Error.
func classify(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	return &Error{Kind: KindUnavailable, Message: err.Error()}
}

const maxErrorBody = 2048

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}

// Turn is one prior exchange message carried into the prompt.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request carries everything a backend needs for one completion.
type Request struct {
	System   string
	Context  string // retrieved document context, already truncated
	History  []Turn // chronological
	Question string // the current user turn

	Temperature float64 // 0 means default (0.7)
	MaxTokens   int     // 0 means backend default
	Stop        []string
	Grammar     string // GBNF, honored by the local backend only
}

func (r Request) temperature() float64 {
	if r.Temperature == 0 {
		return 0.7
	}
	return r.Temperature
}

// Completer is implemented by every backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// newHTTPClient bounds connect and read phases separately: the dial gets its
// own deadline, the overall call another.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}
}

// NewFromConfig builds the single active backend named by cfg.LLMBackend.
func NewFromConfig(cfg *config.Config) (Completer, error) {
	switch cfg.LLMBackend {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("LLM_BACKEND=openai requires OPENAI_API_KEY")
		}
		return NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "mistral":
		// Mistral speaks the chat-completions dialect; only the base URL and
		// model differ.
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("LLM_BACKEND=mistral requires OPENAI_API_KEY")
		}
		base := cfg.OpenAIBaseURL
		if base == "" || base == "https://api.openai.com/v1" {
			base = "https://api.mistral.ai/v1"
		}
		c := NewOpenAIClient(base, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		c.name = "mistral"
		return c, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("LLM_BACKEND=gemini requires GEMINI_API_KEY")
		}
		return NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	case "local":
		return NewLocalClient(cfg.LocalLLMURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND %q", cfg.LLMBackend)
	}
}

// Limiter is a token bucket bounding concurrent completion calls.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = 1
	}
	slots := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		slots <- struct{}{}
	}
	return &Limiter{slots: slots}
}

// Acquire blocks until a slot is available.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case <-l.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for completion slot")
	}
}

func (l *Limiter) Release() {
	l.slots <- struct{}{}
}
