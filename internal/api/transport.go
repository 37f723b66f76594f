package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/batchexec"
)

// maxErrorBodyBytes bounds the response body carried inside a
// TransportError.
const maxErrorBodyBytes = 2000

// call executes one RPC round trip with authentication recovery.
//
// ok is false when the backend returned no result for the RPC, which is a
// valid outcome, not an error.
func (c *Client) call(ctx context.Context, rpcID string, params any, sourcePath string, timeout time.Duration) (gjson.Result, bool, error) {
	var (
		result gjson.Result
		ok     bool
	)
	err := c.withAuthRecovery(ctx, func() error {
		var err error
		result, ok, err = c.doCall(ctx, rpcID, params, sourcePath, timeout)
		return err
	})
	return result, ok, err
}

// doCall executes a single RPC attempt with no recovery.
func (c *Client) doCall(ctx context.Context, rpcID string, params any, sourcePath string, timeout time.Duration) (gjson.Result, bool, error) {
	body, err := batchexec.EncodeRequest(rpcID, params, c.store.CSRFToken())
	if err != nil {
		return gjson.Result{}, false, err
	}
	rawURL := batchexec.BuildURL(c.baseURL+batchExecutePath, rpcID, sourcePath,
		c.store.BuildLabel(), c.store.SessionID())

	log.Debugf("rpc %s (%s): POST %s", rpcID, rpcName(rpcID), rawURL)

	text, err := c.post(ctx, rawURL, body, timeout, "rpc "+rpcName(rpcID))
	if err != nil {
		return gjson.Result{}, false, err
	}

	frames := batchexec.DecodeStream(text)
	result, ok, err := batchexec.ExtractResult(frames, rpcID)
	if err != nil {
		return gjson.Result{}, false, err
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("rpc %s (%s): result=%s", rpcID, rpcName(rpcID), truncate(result.Raw, maxErrorBodyBytes))
	}
	return result, ok, nil
}

// streamQuery executes one streamed query round trip with authentication
// recovery and returns the selected answer text.
func (c *Client) streamQuery(ctx context.Context, params any, timeout time.Duration) (string, error) {
	var answer string
	err := c.withAuthRecovery(ctx, func() error {
		body, err := batchexec.EncodeStreamRequest(params, c.store.CSRFToken())
		if err != nil {
			return err
		}
		rawURL := batchexec.BuildStreamURL(c.baseURL+streamQueryPath,
			c.store.BuildLabel(), c.store.SessionID(), c.nextReqid())

		text, err := c.post(ctx, rawURL, body, timeout, "query")
		if err != nil {
			return err
		}
		answer = batchexec.ExtractAnswer(text)
		return nil
	})
	return answer, err
}

// post issues one POST and normalizes failures: 401/403 become an
// authentication failure, other error statuses a TransportError, deadline
// overruns a TimeoutError. op labels the operation in error messages.
func (c *Client) post(ctx context.Context, rawURL, body string, timeout time.Duration, op string) (string, error) {
	if timeout <= 0 {
		timeout = defaultRPCTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", op, err)
	}
	c.setRPCHeaders(req)

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{Op: op, Budget: timeout}
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", op, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("HTTP %d: %w", resp.StatusCode, batchexec.ErrAuthentication)
	case resp.StatusCode >= 400:
		return "", &TransportError{Status: resp.StatusCode, Body: truncate(string(data), maxErrorBodyBytes)}
	}
	return string(data), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
