// Package api implements the NotebookLM client: RPC transport over the
// batchexecute wire format, layered authentication recovery, and the typed
// domain operations (notebooks, sources, query, research, studio) built on
// top of it.
package api

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/auth"
)

const (
	// DefaultBaseURL is the NotebookLM web app origin.
	DefaultBaseURL = "https://notebooklm.google.com"

	// batchExecutePath is the RPC endpoint under the app origin.
	batchExecutePath = "/_/LabsTailwindUi/data/batchexecute"
	// streamQueryPath is the streamed query endpoint. It speaks a different
	// envelope than batchexecute but shares the response framing.
	streamQueryPath = "/_/LabsTailwindUi/data/google.internal.labs.tailwind.orchestration.v1.LabsTailwindOrchestrationService/GenerateFreeFormStreamed"

	// defaultRPCTimeout covers most operations.
	defaultRPCTimeout = 30 * time.Second
	// sourceAddTimeout covers source ingestion, which can run minutes for
	// large documents.
	sourceAddTimeout = 120 * time.Second
	// defaultQueryTimeout covers streamed queries.
	defaultQueryTimeout = 120 * time.Second

	// rpcUserAgent is sent on RPC calls. The page fetch in internal/auth
	// uses the fuller browser-navigation header set.
	rpcUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

var (
	randSource      = rand.New(rand.NewSource(time.Now().UnixNano()))
	randSourceMutex sync.Mutex
)

// ReloginFunc is the browser-automation collaborator consumed by recovery
// tier 2. It attempts a non-interactive re-login and returns a full
// credential bundle, or an error when no saved login is reachable.
type ReloginFunc func(ctx context.Context) (auth.Bundle, error)

// Client talks to the NotebookLM backend on behalf of one caller.
//
// A Client owns its credential store, its pooled HTTP connection and its
// conversation cache. It is designed for serialized use: concurrent calls on
// the same Client are not coordinated and may race the credential-refresh
// retry path. Use one Client per concurrent caller.
type Client struct {
	baseURL string
	store   *auth.Store
	relogin ReloginFunc

	mu         sync.Mutex
	httpClient *http.Client

	conversations *conversationCache
	reqid         int64
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the backend origin. Intended for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRelogin wires the browser-automation collaborator used by recovery
// tier 2. Without it, recovery stops at the credential cache.
func WithRelogin(fn ReloginFunc) Option {
	return func(c *Client) { c.relogin = fn }
}

// New creates a Client around a credential store. The store's bundle must
// contain the required auth cookies; an unusable bundle is rejected here,
// before any network call.
func New(store *auth.Store, opts ...Option) (*Client, error) {
	if err := store.Bundle().Validate(); err != nil {
		return nil, fmt.Errorf("credential bundle rejected: %w", err)
	}

	c := &Client{
		baseURL:       DefaultBaseURL,
		store:         store,
		conversations: newConversationCache(),
		reqid:         initialReqid(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// initialReqid seeds the streamed-query request counter the way the web
// client does: a random six-digit value, bumped by 100000 per request.
func initialReqid() int64 {
	randSourceMutex.Lock()
	defer randSourceMutex.Unlock()
	return 100000 + randSource.Int63n(900000)
}

// nextReqid returns the next value of the _reqid query parameter.
func (c *Client) nextReqid() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqid += 100000
	return c.reqid
}

// getHTTPClient returns the pooled HTTP client, building it on first use.
func (c *Client) getHTTPClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c.httpClient
}

// invalidateHTTPClient drops the pooled connection so the next call rebuilds
// it with fresh cookie headers. This is the one intentional shared-state
// reset: it runs after every successful recovery tier.
func (c *Client) invalidateHTTPClient() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
}

// setRPCHeaders applies the header set the web client sends on RPC calls.
func (c *Client) setRPCHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Cookie", c.store.Bundle().CookieHeader())
	req.Header.Set("X-Same-Domain", "1")
	req.Header.Set("User-Agent", rpcUserAgent)
}
