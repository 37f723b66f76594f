package browser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestLoggedInURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://notebooklm.google.com/", true},
		{"https://notebooklm.google.com/notebook/abc", true},
		{"https://accounts.google.com/v3/signin/identifier?continue=x", false},
		{"about:blank", false},
		{"", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, loggedInURL(tt.url), tt.url)
	}
}

// fakeCDP serves a minimal DevTools page target over a websocket.
func fakeCDP(t *testing.T, html string, cookies map[string]string) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		for {
			var req cdpRequest
			if err := ws.ReadJSON(&req); err != nil {
				return
			}

			// Interleave an event notification to exercise response
			// matching.
			require.NoError(t, ws.WriteJSON(map[string]any{
				"method": "Page.frameNavigated",
				"params": map[string]any{},
			}))

			var result any = map[string]any{}
			switch req.Method {
			case "Runtime.evaluate":
				params, _ := req.Params.(map[string]any)
				expr, _ := params["expression"].(string)
				value := "https://notebooklm.google.com/"
				if strings.Contains(expr, "outerHTML") {
					value = html
				}
				result = map[string]any{"result": map[string]any{"value": value}}
			case "Network.getCookies":
				var list []map[string]any
				for name, value := range cookies {
					list = append(list, map[string]any{"name": name, "value": value})
				}
				result = map[string]any{"cookies": list}
			}
			require.NoError(t, ws.WriteJSON(map[string]any{
				"id":     req.ID,
				"result": result,
			}))
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// redirectingCDP serves a page stuck on about:blank until a Page.navigate
// arrives, after which the server redirects it to finalURL. navigatedTo
// records the requested navigation target.
func redirectingCDP(t *testing.T, finalURL string, navigatedTo *string) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		current := "about:blank"
		for {
			var req cdpRequest
			if err := ws.ReadJSON(&req); err != nil {
				return
			}

			var result any = map[string]any{}
			switch req.Method {
			case "Page.navigate":
				params, _ := req.Params.(map[string]any)
				*navigatedTo, _ = params["url"].(string)
				current = finalURL
				result = map[string]any{"frameId": "frame-1"}
			case "Runtime.evaluate":
				result = map[string]any{"result": map[string]any{"value": current}}
			}
			require.NoError(t, ws.WriteJSON(map[string]any{
				"id":     req.ID,
				"result": result,
			}))
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSettleOnAppReachesTheApp(t *testing.T) {
	t.Parallel()

	var navigatedTo string
	wsURL := redirectingCDP(t, "https://notebooklm.google.com/", &navigatedTo)

	conn, err := dialCDP(context.Background(), wsURL)
	require.NoError(t, err)
	defer conn.Close()

	pageURL, err := settleOnApp(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, notebookURL, navigatedTo)
	require.True(t, loggedInURL(pageURL))
}

func TestSettleOnAppDetectsExpiredLogin(t *testing.T) {
	t.Parallel()

	var navigatedTo string
	wsURL := redirectingCDP(t, "https://accounts.google.com/v3/signin/identifier", &navigatedTo)

	conn, err := dialCDP(context.Background(), wsURL)
	require.NoError(t, err)
	defer conn.Close()

	pageURL, err := settleOnApp(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, notebookURL, navigatedTo)
	require.False(t, loggedInURL(pageURL))
}

func fullCookies() map[string]string {
	return map[string]string{
		"SID":     "sid",
		"HSID":    "hsid",
		"SSID":    "ssid",
		"APISID":  "apisid",
		"SAPISID": "sapisid",
	}
}

func TestExtractBundleFromPage(t *testing.T) {
	t.Parallel()

	html := `<html>{"SNlM0e":"scraped-csrf","FdrFJe":"scraped-sid"}</html>`
	wsURL := fakeCDP(t, html, fullCookies())

	conn, err := dialCDP(context.Background(), wsURL)
	require.NoError(t, err)
	defer conn.Close()

	bundle, err := extractBundle(conn)
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())
	require.Equal(t, "scraped-csrf", bundle.CSRFToken)
	require.Equal(t, "scraped-sid", bundle.SessionID)
	require.NotZero(t, bundle.ExtractedAt)
}

func TestExtractBundleRejectsPartialCookies(t *testing.T) {
	t.Parallel()

	cookies := fullCookies()
	delete(cookies, "SID")
	wsURL := fakeCDP(t, "<html></html>", cookies)

	conn, err := dialCDP(context.Background(), wsURL)
	require.NoError(t, err)
	defer conn.Close()

	_, err = extractBundle(conn)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCDPConnCurrentURL(t *testing.T) {
	t.Parallel()

	wsURL := fakeCDP(t, "<html></html>", nil)
	conn, err := dialCDP(context.Background(), wsURL)
	require.NoError(t, err)
	defer conn.Close()

	pageURL, err := conn.currentURL()
	require.NoError(t, err)
	require.Equal(t, "https://notebooklm.google.com/", pageURL)
}

// sessionFor points a Session's DevTools HTTP discovery at a test server.
func sessionFor(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(t.TempDir(), port)
}

func TestFindNotebookPagePrefersExisting(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]page{
			{URL: "chrome://newtab", WebSocketDebuggerURL: "ws://x/1"},
			{URL: "https://notebooklm.google.com/notebook/abc", WebSocketDebuggerURL: "ws://x/2"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := sessionFor(t, srv)
	target, err := s.findNotebookPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ws://x/2", target.WebSocketDebuggerURL)
}

func TestFindNotebookPageCreatesWhenMissing(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]page{})
	})
	mux.HandleFunc("PUT /json/new", func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.RawQuery, url.QueryEscape(notebookURL))
		json.NewEncoder(w).Encode(page{
			URL:                  notebookURL,
			WebSocketDebuggerURL: "ws://x/new",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := sessionFor(t, srv)
	target, err := s.findNotebookPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ws://x/new", target.WebSocketDebuggerURL)
}

func TestReloginWithoutProfileIsUnavailable(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), DefaultHeadlessPort)
	_, err := s.Relogin(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}
