// Package auth holds the Google credential bundle needed to call NotebookLM:
// the auth cookies exported from a logged-in browser plus the derived CSRF
// token, session id and build label scraped from the app page.
package auth

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RequiredCookies is the minimal Google auth cookie set. A bundle missing any
// of these cannot authorize calls and is rejected before any network I/O.
var RequiredCookies = []string{"SID", "HSID", "SSID", "APISID", "SAPISID"}

// Bundle is the persisted credential set. Cookies are mandatory; the CSRF
// token and session id are derived lazily from a page fetch and may be empty.
type Bundle struct {
	Cookies     map[string]string `json:"cookies"`
	CSRFToken   string            `json:"csrf_token"`
	SessionID   string            `json:"session_id"`
	ExtractedAt float64           `json:"extracted_at"`
}

// Validate checks that the required auth cookies are present.
func (b Bundle) Validate() error {
	var missing []string
	for _, name := range RequiredCookies {
		if b.Cookies[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required cookies: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CookieHeader renders the cookies as a Cookie header value.
func (b Bundle) CookieHeader() string {
	names := make([]string, 0, len(b.Cookies))
	for name := range b.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+b.Cookies[name])
	}
	return strings.Join(pairs, "; ")
}

// Age reports how long ago the bundle was extracted. Advisory only: cookie
// validity is decided by the login-redirect check in Refresh, never by age.
func (b Bundle) Age() time.Duration {
	if b.ExtractedAt == 0 {
		return 0
	}
	return time.Since(time.Unix(int64(b.ExtractedAt), 0))
}

// ParseCookieHeader parses a copy-pasted Cookie header value, as captured
// from the browser's network inspector, into a cookie map.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		cookies[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return cookies
}
