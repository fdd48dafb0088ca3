package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrisk-backend/internal/llm"
)

func fakeMessage(t *testing.T, raw string) *anthropic.Message {
	t.Helper()
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}

func TestCompleteJoinsTextBlocks(t *testing.T) {
	var got anthropic.MessageNewParams
	c := &Client{
		model: "claude-test",
		newMessage: func(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
			got = params
			return fakeMessage(t, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
				"content":[{"type":"text","text":"{\"riskLevel\":"},{"type":"text","text":"\"high\"}"}],
				"usage":{"input_tokens":10,"output_tokens":4}}`), nil
		},
	}

	out, err := c.Complete(context.Background(), llm.Request{
		Stage:       llm.StageScore,
		System:      "be terse",
		Prompt:      "Clause: uncapped",
		Temperature: llm.Temp(0),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"riskLevel":"high"}`, out)
	assert.Equal(t, anthropic.Model("claude-test"), got.Model)
	assert.Equal(t, int64(defaultMaxTokens), got.MaxTokens)
	require.Len(t, got.System, 1)
	assert.Equal(t, "be terse", got.System[0].Text)
	require.Len(t, got.Messages, 1)
}

func TestCompleteEmptyContentIsError(t *testing.T) {
	c := &Client{
		model: "claude-test",
		newMessage: func(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
			return fakeMessage(t, `{"id":"msg_1","type":"message","role":"assistant","content":[]}`), nil
		},
	}
	_, err := c.Complete(context.Background(), llm.Request{Prompt: "x"})
	assert.Error(t, err)
}

func TestCompleteWrapsTransportError(t *testing.T) {
	c := &Client{
		model: "claude-test",
		newMessage: func(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
			return nil, context.DeadlineExceeded
		},
	}
	_, err := c.Complete(context.Background(), llm.Request{Prompt: "x"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, llm.ShouldRetry(err))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	assert.Error(t, err)

	c, err := NewClient("key", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
}

func TestNewClientMakesOneHTTPAttemptPerCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
	}))
	defer srv.Close()

	c, err := newClient("test-key", "claude-test", option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), llm.Request{Stage: llm.StageScore, Prompt: "Clause: uncapped"})
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}
