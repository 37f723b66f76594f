package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrCredentialsExpired means the page fetch redirected to the Google login
// domain: the cookies are definitively invalid and only an interactive login
// can produce a fresh set.
var ErrCredentialsExpired = errors.New("credentials expired: run `notebooklm auth` to log in again")

const (
	// loginHost is the external domain a page fetch lands on when cookies
	// are no longer accepted.
	loginHost = "accounts.google.com"
	// refreshTimeout bounds the page fetch used for token derivation.
	refreshTimeout = 15 * time.Second
	// staleWarnAfter is the advisory age threshold for cached credentials.
	// Age never gates usability; the redirect check is the real test.
	staleWarnAfter = 7 * 24 * time.Hour
)

// Page fetches must look like a real browser navigation or the backend
// serves a stripped page without the embedded tokens.
var pageFetchHeaders = map[string]string{
	"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36",
	"Accept":             "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":    "en-US,en;q=0.9",
	"Sec-Fetch-Dest":     "document",
	"Sec-Fetch-Mode":     "navigate",
	"Sec-Fetch-Site":     "none",
	"Sec-Fetch-User":     "?1",
	"sec-ch-ua":          `"Google Chrome";v="143", "Chromium";v="143", "Not A(Brand";v="24"`,
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"macOS"`,
}

// Token key names embedded as string literals in the page HTML.
var (
	csrfPattern       = regexp.MustCompile(`"SNlM0e":"([^"]+)"`)
	buildLabelPattern = regexp.MustCompile(`"cfb2h":"([^"]+)"`)
	sessionIDPattern  = regexp.MustCompile(`"FdrFJe":"([^"]+)"`)
)

// ExtractPageTokens scrapes the embedded tokens out of app page HTML. Any
// of the three may come back empty when the page does not carry it.
func ExtractPageTokens(html []byte) (csrf, bl, sessionID string) {
	return firstMatch(csrfPattern, html),
		firstMatch(buildLabelPattern, html),
		firstMatch(sessionIDPattern, html)
}

// Store owns the live credential bundle and knows how to derive the CSRF
// token, session id and build label from a fresh page fetch.
//
// Store is not safe for concurrent use; serialize access per client.
type Store struct {
	home       string
	baseURL    string
	loginHost  string
	fallbackBL string

	bundle Bundle
	bl     string
}

// NewStore creates a Store for the given state directory and app base URL.
// fallbackBL is the build label used until one is scraped from the page.
func NewStore(home, baseURL, fallbackBL string, bundle Bundle) *Store {
	return &Store{
		home:       home,
		baseURL:    baseURL,
		loginHost:  loginHost,
		fallbackBL: fallbackBL,
		bundle:     bundle,
	}
}

// Bundle returns the current credential bundle.
func (s *Store) Bundle() Bundle { return s.bundle }

// SetBundle replaces the credential bundle wholesale.
func (s *Store) SetBundle(bundle Bundle) { s.bundle = bundle }

// ClearDerived drops the derived tokens so the next Refresh re-extracts them
// against the current cookie set.
func (s *Store) ClearDerived() {
	s.bundle.CSRFToken = ""
	s.bundle.SessionID = ""
	s.bl = ""
}

// CSRFToken returns the current CSRF token, possibly empty.
func (s *Store) CSRFToken() string { return s.bundle.CSRFToken }

// SessionID returns the current session id, possibly empty.
func (s *Store) SessionID() string { return s.bundle.SessionID }

// BuildLabel returns the backend build label: the scraped value when known,
// the configured fallback otherwise.
func (s *Store) BuildLabel() string {
	if s.bl != "" {
		return s.bl
	}
	return s.fallbackBL
}

// Refresh derives fresh tokens by fetching the app page with the stored
// cookies.
//
// A final URL on the login domain is definitive proof the cookies are
// invalid and yields ErrCredentialsExpired. A missing CSRF token is fatal
// (no RPC can be issued without it); the raw page is saved for postmortem
// diagnosis. Build label and session id are optional. On success the bundle
// is persisted to cache best-effort.
func (s *Store) Refresh(ctx context.Context) error {
	if age := s.bundle.Age(); age > staleWarnAfter {
		log.Warnf("credentials are %s old; they may still work", age.Round(time.Hour))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	for name, value := range pageFetchHeaders {
		req.Header.Set(name, value)
	}
	req.Header.Set("Cookie", s.bundle.CookieHeader())

	client := &http.Client{Timeout: refreshTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch app page: %w", err)
	}
	defer resp.Body.Close()

	if resp.Request.URL.Host == s.loginHost {
		return ErrCredentialsExpired
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch app page: HTTP %d", resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read app page: %w", err)
	}

	csrf, bl, sid := ExtractPageTokens(html)
	if csrf == "" {
		debugPath := s.saveDebugPage(html)
		return fmt.Errorf("no CSRF token in app page (saved to %s); the page structure may have changed", debugPath)
	}
	s.bundle.CSRFToken = csrf

	if bl != "" {
		s.bl = bl
	}
	if sid != "" {
		s.bundle.SessionID = sid
	}
	if s.bundle.ExtractedAt == 0 {
		s.bundle.ExtractedAt = float64(time.Now().Unix())
	}

	// Persistence is an optimization, never a failure.
	if err := SaveCache(s.home, s.bundle); err != nil {
		log.Warnf("failed to persist credential cache: %v", err)
	}

	log.Debugf("refreshed tokens: bl=%s session_id=%s", s.BuildLabel(), s.bundle.SessionID)
	return nil
}

// LoadFromCache adopts the persisted bundle, if any.
func (s *Store) LoadFromCache() (bool, error) {
	bundle, ok, err := LoadCache(s.home)
	if err != nil || !ok {
		return false, err
	}
	s.bundle = bundle
	return true, nil
}

// SaveToCache persists the current bundle.
func (s *Store) SaveToCache() error {
	return SaveCache(s.home, s.bundle)
}

func (s *Store) saveDebugPage(html []byte) string {
	path := filepath.Join(s.home, "debug_page.html")
	if err := os.MkdirAll(s.home, 0o700); err == nil {
		if err := os.WriteFile(path, html, 0o600); err != nil {
			log.Warnf("failed to save debug page: %v", err)
		}
	}
	return path
}

func firstMatch(re *regexp.Regexp, html []byte) string {
	m := re.FindSubmatch(html)
	if len(m) < 2 {
		return ""
	}
	return string(m[1])
}
