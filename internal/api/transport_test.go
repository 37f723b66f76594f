package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/auth"
)

func TestCallRecoversFromHTTPAuthFailure(t *testing.T) {
	t.Parallel()

	var rpcCalls, pageFetches atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		pageFetches.Add(1)
		io.WriteString(w, testPageHTML)
	})
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		if rpcCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, rpcResponse(t, rpcListNotebooks, []any{[]any{
			[]any{"My Notebook", []any{}, "nb-1"},
		}}))
	})

	c := newTestClient(t, mux)
	notebooks, err := c.ListNotebooks(context.Background())

	require.NoError(t, err)
	require.Len(t, notebooks, 1)
	require.Equal(t, "nb-1", notebooks[0].ID)
	require.Equal(t, int64(2), rpcCalls.Load())
	require.Equal(t, int64(1), pageFetches.Load(), "tier 1 should refresh exactly once")
	require.Equal(t, "fresh-csrf", c.store.CSRFToken())
}

func TestCallRecoversFromSoftAuthError(t *testing.T) {
	t.Parallel()

	var rpcCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testPageHTML)
	})
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		if rpcCalls.Add(1) == 1 {
			// HTTP 200 carrying the in-band auth failure frame.
			io.WriteString(w, softAuthResponse(t, rpcListNotebooks))
			return
		}
		io.WriteString(w, rpcResponse(t, rpcListNotebooks, []any{[]any{
			[]any{"Recovered", []any{}, "nb-2"},
		}}))
	})

	c := newTestClient(t, mux)
	notebooks, err := c.ListNotebooks(context.Background())

	require.NoError(t, err)
	require.Len(t, notebooks, 1)
	require.Equal(t, "Recovered", notebooks[0].Title)
}

func TestCallExhaustedRecoveryReturnsCredentialsExpired(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	// The app page never carries a CSRF token, so every refresh fails.
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>stripped</html>")
	})
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c := newTestClient(t, mux)
	_, err := c.ListNotebooks(context.Background())

	require.ErrorIs(t, err, auth.ErrCredentialsExpired)
}

func TestCallUsesReloginCollaborator(t *testing.T) {
	t.Parallel()

	var rpcCalls, relogins atomic.Int64
	var pageOK atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if !pageOK.Load() {
			io.WriteString(w, "<html>stripped</html>")
			return
		}
		io.WriteString(w, testPageHTML)
	})
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		if relogins.Load() == 0 {
			rpcCalls.Add(1)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		io.WriteString(w, rpcResponse(t, rpcListNotebooks, []any{[]any{
			[]any{"After relogin", []any{}, "nb-3"},
		}}))
	})

	relogin := func(ctx context.Context) (auth.Bundle, error) {
		relogins.Add(1)
		pageOK.Store(true)
		bundle := testBundle()
		bundle.CSRFToken = ""
		return bundle, nil
	}

	c := newTestClient(t, mux, WithRelogin(relogin))
	notebooks, err := c.ListNotebooks(context.Background())

	require.NoError(t, err)
	require.Len(t, notebooks, 1)
	require.Equal(t, int64(1), relogins.Load())
	// The relogin bundle had no CSRF token, so recovery refreshed one.
	require.Equal(t, "fresh-csrf", c.store.CSRFToken())
}

func TestCallSurfacesTransportError(t *testing.T) {
	t.Parallel()

	bigBody := strings.Repeat("x", 3000)
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, bigBody)
	})

	c := newTestClient(t, mux)
	_, err := c.ListNotebooks(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusBadGateway, te.Status)
	require.True(t, strings.HasSuffix(te.Body, "... (truncated)"))
	require.Less(t, len(te.Body), len(bigBody))
}

func TestPostTimeoutBecomesTimeoutError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+batchExecutePath, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	c := newTestClient(t, mux)
	_, err := c.post(context.Background(), c.baseURL+batchExecutePath, "f.req=x&", 10*time.Millisecond, "rpc test")

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	require.Contains(t, te.Error(), "may have succeeded")
}
