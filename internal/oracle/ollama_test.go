package oracle

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arcanaland/corvid/internal/config"
)

func newTestClient(endpoint string, timeout time.Duration) *Client {
	return New(config.OracleConfig{
		Endpoint: endpoint,
		Model:    "llama3",
		Timeout:  config.Duration{Duration: timeout},
	}, zap.NewNop())
}

func TestInterpret(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"llama3","response":"The crows foretell change.","done":true}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, time.Second).Interpret(context.Background(), "The Tower: upheaval")
	require.NoError(t, err)

	assert.Equal(t, "The crows foretell change.", out)
	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, Preamble+"The Tower: upheaval", got.Prompt)
}

func TestInterpret_MissingResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":true}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, time.Second).Interpret(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, NoInterpretation, out)
}

func TestInterpret_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'llama3' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).Interpret(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "404")
}

func TestInterpret_Unavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := newTestClient("http://"+addr, time.Second)
	_, err = c.Interpret(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), addr)
}

func TestInterpret_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	// Deferred calls run in reverse, so the handler is released before Close waits on it
	defer close(release)

	_, err := newTestClient(srv.URL, 50*time.Millisecond).Interpret(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestInterpret_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second).Interpret(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestNew_Defaults(t *testing.T) {
	c := New(config.OracleConfig{}, zap.NewNop())
	assert.Equal(t, "http://localhost:11434", c.Endpoint())
	assert.Equal(t, "llama3", c.model)
	assert.Equal(t, 30*time.Second, c.timeout)
}
