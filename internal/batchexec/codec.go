// Package batchexec implements the wire format spoken by the NotebookLM
// backend's batchexecute endpoint: form-encoded, array-wrapped requests and
// an anti-XSSI-prefixed, length-delimited JSON response stream.
//
// The format is byte-sensitive. Request bodies must match Chrome's compact
// JSON serialization and full percent-escaping, or the backend rejects or
// misparses the call.
package batchexec

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ResponsePrefix is the anti-XSSI prefix the backend prepends to every
// batchexecute response body.
const ResponsePrefix = ")]}'"

// FrameTag marks response frame items that carry an RPC result.
const FrameTag = "wrb.fr"

// EncodeRequest builds the form-encoded request body for a batchexecute call.
//
// Params are serialized as compact JSON (no whitespace) and wrapped in the
// fixed envelope [[[rpcID, paramsJSON, null, "generic"]]]. The whole envelope
// is percent-escaped with every reserved character encoded, including "/".
// The trailing "&" matches the body shape the web client sends.
func EncodeRequest(rpcID string, params any, csrfToken string) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal rpc params: %w", err)
	}

	envelope := []any{[]any{[]any{rpcID, string(paramsJSON), nil, "generic"}}}
	return encodeBody(envelope, csrfToken)
}

// EncodeStreamRequest builds the request body for the streamed query
// endpoint. The envelope differs from batchexecute: [null, paramsJSON].
func EncodeStreamRequest(params any, csrfToken string) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal query params: %w", err)
	}

	envelope := []any{nil, string(paramsJSON)}
	return encodeBody(envelope, csrfToken)
}

func encodeBody(envelope any, csrfToken string) (string, error) {
	envelopeJSON, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("marshal request envelope: %w", err)
	}

	var b strings.Builder
	b.WriteString("f.req=")
	b.WriteString(escapeAll(string(envelopeJSON)))
	if csrfToken != "" {
		b.WriteString("&at=")
		b.WriteString(escapeAll(csrfToken))
	}
	b.WriteString("&")
	return b.String(), nil
}

// escapeAll percent-encodes every reserved character, "/" included.
// url.QueryEscape leaves none of them bare but encodes spaces as "+", which
// the backend does not accept inside f.req.
func escapeAll(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// BuildURL assembles the batchexecute URL for one RPC. bl is the backend
// build label; sessionID is appended as f.sid when known.
func BuildURL(base, rpcID, sourcePath, bl, sessionID string) string {
	q := url.Values{}
	q.Set("rpcids", rpcID)
	q.Set("source-path", sourcePath)
	q.Set("bl", bl)
	q.Set("hl", "en")
	q.Set("rt", "c")
	if sessionID != "" {
		q.Set("f.sid", sessionID)
	}
	return base + "?" + q.Encode()
}

// BuildStreamURL assembles the streamed query endpoint URL. reqid is the
// per-client request counter required by the endpoint.
func BuildStreamURL(base, bl, sessionID string, reqid int64) string {
	q := url.Values{}
	q.Set("bl", bl)
	q.Set("hl", "en")
	q.Set("_reqid", fmt.Sprintf("%d", reqid))
	q.Set("rt", "c")
	if sessionID != "" {
		q.Set("f.sid", sessionID)
	}
	return base + "?" + q.Encode()
}
