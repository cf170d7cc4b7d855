package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), "llama", Options{APIKey: "k"}, nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNew_RequiresKey(t *testing.T) {
	for _, p := range []string{ProviderClaude, ProviderOpenAI, ProviderGemini} {
		_, err := New(context.Background(), p, Options{}, nil)
		assert.Error(t, err, p)
	}
}

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "rate AAPL", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"**SENTIMENT SCORE:** 7"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	gen, err := New(context.Background(), ProviderOpenAI, Options{APIKey: "test-key", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, gen.Name())

	out, err := gen.Generate(WithMode(context.Background(), "single"), "rate AAPL")
	require.NoError(t, err)
	assert.Equal(t, "**SENTIMENT SCORE:** 7", out)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAI(Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "p")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestClaude_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",
			"content":[{"type":"text","text":"**RECOMMENDATION:** NEUTRAL"}],
			"stop_reason":"end_turn","usage":{"input_tokens":5,"output_tokens":7}}`))
	}))
	defer srv.Close()

	gen, err := NewClaude(Options{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "rate MSFT")
	require.NoError(t, err)
	assert.Equal(t, "**RECOMMENDATION:** NEUTRAL", out)
}

func TestClaude_ServerErrorNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	}))
	defer srv.Close()

	gen, err := NewClaude(Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "p")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

type stubGen struct {
	out string
	err error
}

func (s stubGen) Name() string { return "stub" }
func (s stubGen) Generate(context.Context, string) (string, error) {
	return s.out, s.err
}

func TestInstrument_PassesThrough(t *testing.T) {
	gen := Instrument(stubGen{out: "ok"}, nil)
	out, err := gen.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "stub", gen.Name())

	boom := errors.New("boom")
	_, err = Instrument(stubGen{err: boom}, nil).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)
}
