package llm

import (
	"context"
	"errors"
)

// Pipeline stages, used for metrics and log fields.
const (
	StageClassify = "classify"
	StageExtract  = "extract"
	StageScore    = "score"
)

// Client abstracts LLM providers. Complete returns the raw model text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one completion call.
type Request struct {
	Stage  string
	System string
	Prompt string
	// JSON asks the provider for a JSON object response where it supports that.
	JSON bool
	// Temperature is omitted when nil.
	Temperature *float32
	MaxTokens   int
}

// Temp returns a pointer for Request.Temperature.
func Temp(v float32) *float32 { return &v }

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
