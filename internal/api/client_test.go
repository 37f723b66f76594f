package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/auth"
	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/batchexec"
)

// testPageHTML is an app page carrying all three embedded tokens.
const testPageHTML = `<html><script>window.WIZ_global_data = {"SNlM0e":"fresh-csrf","cfb2h":"fresh-bl","FdrFJe":"fresh-sid"};</script></html>`

func testBundle() auth.Bundle {
	return auth.Bundle{
		Cookies: map[string]string{
			"SID":     "sid-value",
			"HSID":    "hsid-value",
			"SSID":    "ssid-value",
			"APISID":  "apisid-value",
			"SAPISID": "sapisid-value",
		},
		CSRFToken:   "csrf-token",
		SessionID:   "session-id",
		ExtractedAt: float64(time.Now().Unix()),
	}
}

// newTestClient builds a Client whose RPC endpoint and token-refresh page
// are both served by the given handler.
func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := auth.NewStore(t.TempDir(), srv.URL, "test-bl", testBundle())
	c, err := New(store, append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	require.NoError(t, err)
	return c
}

// encodeFrames renders response frames in the length-delimited wire shape.
func encodeFrames(frames ...string) string {
	var b strings.Builder
	b.WriteString(batchexec.ResponsePrefix + "\n\n")
	for _, f := range frames {
		fmt.Fprintf(&b, "%d\n%s\n", len(f), f)
	}
	return b.String()
}

// rpcResponse renders a successful response carrying payload for rpcID.
func rpcResponse(t *testing.T, rpcID string, payload any) string {
	t.Helper()

	payloadJSON, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal([]any{
		[]any{batchexec.FrameTag, rpcID, string(payloadJSON), nil, nil, nil, "generic"},
	})
	require.NoError(t, err)
	return encodeFrames(string(frame))
}

// softAuthResponse renders the backend's in-band auth failure frame.
func softAuthResponse(t *testing.T, rpcID string) string {
	t.Helper()

	frame, err := json.Marshal([]any{
		[]any{batchexec.FrameTag, rpcID, nil, nil, nil, []any{16}, "generic"},
	})
	require.NoError(t, err)
	return encodeFrames(string(frame))
}

// decodeRPCParams recovers the params array from a captured request body.
func decodeRPCParams(t *testing.T, body string) gjson.Result {
	t.Helper()

	form, err := url.ParseQuery(strings.TrimSuffix(body, "&"))
	require.NoError(t, err)
	envelope := gjson.Parse(form.Get("f.req"))
	return gjson.Parse(envelope.Get("0.0.1").String())
}

// decodeStreamParams recovers the params array from a streamed-query body.
func decodeStreamParams(t *testing.T, body string) gjson.Result {
	t.Helper()

	form, err := url.ParseQuery(strings.TrimSuffix(body, "&"))
	require.NoError(t, err)
	envelope := gjson.Parse(form.Get("f.req"))
	return gjson.Parse(envelope.Get("1").String())
}

func TestNewRejectsIncompleteBundle(t *testing.T) {
	t.Parallel()

	bundle := testBundle()
	delete(bundle.Cookies, "SAPISID")
	store := auth.NewStore(t.TempDir(), "http://unused", "test-bl", bundle)

	_, err := New(store)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SAPISID")
}

func TestNextReqidAdvancesByFixedStep(t *testing.T) {
	t.Parallel()

	c := &Client{reqid: initialReqid()}
	first := c.nextReqid()
	second := c.nextReqid()

	require.Equal(t, int64(100000), second-first)
	require.GreaterOrEqual(t, first, int64(200000))
}
