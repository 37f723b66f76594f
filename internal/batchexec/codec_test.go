package batchexec

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeRequest(t *testing.T) {
	t.Parallel()

	body, err := EncodeRequest("wXbhsf", []any{nil, 1, nil, []any{2}}, "AToken:123")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(body, "f.req="))
	require.True(t, strings.HasSuffix(body, "&"), "body must keep the trailing separator")

	values, err := url.ParseQuery(strings.TrimSuffix(body, "&"))
	require.NoError(t, err)
	require.Equal(t,
		`[[["wXbhsf","[null,1,null,[2]]",null,"generic"]]]`,
		values.Get("f.req"))
	require.Equal(t, "AToken:123", values.Get("at"))
}

func TestEncodeRequestEscapesEverything(t *testing.T) {
	t.Parallel()

	body, err := EncodeRequest("rLM1Ne", []any{"a/b c&d=e"}, "")
	require.NoError(t, err)

	payload := strings.TrimPrefix(strings.TrimSuffix(body, "&"), "f.req=")
	require.NotContains(t, payload, "/")
	require.NotContains(t, payload, "+", "spaces must be %20, not +")
	require.NotContains(t, payload, " ")
	require.Contains(t, payload, "%2F")
	require.Contains(t, payload, "%20")

	// No CSRF token means no at= parameter at all.
	require.NotContains(t, body, "at=")
}

func TestEncodeStreamRequest(t *testing.T) {
	t.Parallel()

	body, err := EncodeStreamRequest([]any{[]any{}, "hello"}, "tok")
	require.NoError(t, err)

	values, err := url.ParseQuery(strings.TrimSuffix(body, "&"))
	require.NoError(t, err)
	require.Equal(t, `[null,"[[],\"hello\"]"]`, values.Get("f.req"))
	require.Equal(t, "tok", values.Get("at"))
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	raw := BuildURL("https://notebooklm.google.com/_/LabsTailwindUi/data/batchexecute",
		"wXbhsf", "/notebook/abc", "boq_labs-tailwind-frontend_20260108.06_p0", "12345")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "wXbhsf", q.Get("rpcids"))
	require.Equal(t, "/notebook/abc", q.Get("source-path"))
	require.Equal(t, "boq_labs-tailwind-frontend_20260108.06_p0", q.Get("bl"))
	require.Equal(t, "en", q.Get("hl"))
	require.Equal(t, "c", q.Get("rt"))
	require.Equal(t, "12345", q.Get("f.sid"))
}

func TestBuildURLOmitsEmptySessionID(t *testing.T) {
	t.Parallel()

	raw := BuildURL("https://example.com/batchexecute", "tGMBJ", "/", "bl", "")
	require.NotContains(t, raw, "f.sid")
}

func TestBuildStreamURL(t *testing.T) {
	t.Parallel()

	raw := BuildStreamURL("https://example.com/stream", "bl1", "sid1", 300000)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "300000", q.Get("_reqid"))
	require.Equal(t, "bl1", q.Get("bl"))
	require.Equal(t, "sid1", q.Get("f.sid"))
	require.Equal(t, "c", q.Get("rt"))
}
