package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// cdpCallTimeout bounds one DevTools command round trip.
const cdpCallTimeout = 30 * time.Second

// page is one DevTools target as listed by the /json endpoint.
type page struct {
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

type cdpRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type cdpResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *cdpError       `json:"error"`
}

type cdpError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *cdpError) Error() string {
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// cdpConn is one DevTools websocket connection to a page target.
//
// Commands are issued serially; event notifications interleaved with
// responses are skipped while waiting for the matching command id.
type cdpConn struct {
	ws     *websocket.Conn
	nextID int64
}

func dialCDP(ctx context.Context, wsURL string) (*cdpConn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial devtools socket: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return &cdpConn{ws: ws}, nil
}

func (c *cdpConn) Close() error {
	return c.ws.Close()
}

// call executes one DevTools command and returns its result payload.
func (c *cdpConn) call(method string, params any) (json.RawMessage, error) {
	c.nextID++
	id := c.nextID

	deadline := time.Now().Add(cdpCallTimeout)
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := c.ws.WriteJSON(cdpRequest{ID: id, Method: method, Params: params}); err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	if err := c.ws.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	for {
		var resp cdpResponse
		if err := c.ws.ReadJSON(&resp); err != nil {
			return nil, fmt.Errorf("read %s response: %w", method, err)
		}
		if resp.ID != id {
			// Event notification or stale response.
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %w", method, resp.Error)
		}
		return resp.Result, nil
	}
}

// evaluate runs a JavaScript expression on the page and returns its string
// value.
func (c *cdpConn) evaluate(expression string) (string, error) {
	if _, err := c.call("Runtime.enable", nil); err != nil {
		return "", err
	}
	raw, err := c.call("Runtime.evaluate", map[string]any{
		"expression":    expression,
		"returnByValue": true,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Result struct {
			Value string `json:"value"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode evaluate result: %w", err)
	}
	return result.Result.Value, nil
}

// currentURL returns the page's location.
func (c *cdpConn) currentURL() (string, error) {
	return c.evaluate("window.location.href")
}

// pageHTML returns the page's rendered HTML.
func (c *cdpConn) pageHTML() (string, error) {
	return c.evaluate("document.documentElement.outerHTML")
}

// cookies returns all cookies visible to the page as a name to value map.
func (c *cdpConn) cookies() (map[string]string, error) {
	raw, err := c.call("Network.getCookies", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Cookies []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"cookies"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}

	cookies := make(map[string]string, len(result.Cookies))
	for _, cookie := range result.Cookies {
		cookies[cookie.Name] = cookie.Value
	}
	return cookies, nil
}

// navigate points the page at url.
func (c *cdpConn) navigate(url string) error {
	if _, err := c.call("Page.enable", nil); err != nil {
		return err
	}
	_, err := c.call("Page.navigate", map[string]any{"url": url})
	return err
}

// getJSON fetches a DevTools HTTP endpoint into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// putJSON issues a PUT against a DevTools HTTP endpoint, decoding the
// response into out when it is non-empty.
func putJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PUT %s: HTTP %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
