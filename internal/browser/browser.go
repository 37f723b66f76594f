// Package browser extracts NotebookLM credentials from a real Chrome
// session over the DevTools protocol.
//
// Chrome runs against a dedicated persistent profile so the Google login
// survives across runs without touching the user's main browser. Headless
// relogin only works once that profile holds a saved login; the first login
// is interactive.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/auth"
)

// ErrUnavailable means browser-assisted auth cannot run right now: Chrome
// is missing, the auth profile is in use, or no saved login exists.
var ErrUnavailable = errors.New("browser auth unavailable")

const (
	// DefaultHeadlessPort avoids clashing with a user's own DevTools
	// session on 9222.
	DefaultHeadlessPort = 9223
	// DefaultInteractivePort is the conventional DevTools port.
	DefaultInteractivePort = 9222

	notebookURL = "https://notebooklm.google.com"
	loginDomain = "accounts.google.com"

	// launchWait gives Chrome time to open its DevTools port.
	launchWait = time.Second
	// launchRetries bounds the DevTools readiness poll.
	launchRetries = 5
	// navigationSettleWait bounds the wait for a forced navigation's
	// redirect chain to land on a recognizable URL.
	navigationSettleWait = 10 * time.Second
)

// Session drives one Chrome instance for credential extraction.
type Session struct {
	home       string
	port       int
	httpClient *http.Client
}

// New creates a Session storing its Chrome profile under home.
func New(home string, port int) *Session {
	return &Session{
		home:       home,
		port:       port,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ProfileDir is where the dedicated Chrome profile lives.
func (s *Session) ProfileDir() string {
	return filepath.Join(s.home, "chrome-profile")
}

// HasProfile reports whether the dedicated profile exists, which is the
// precondition for a headless relogin.
func (s *Session) HasProfile() bool {
	info, err := os.Stat(s.ProfileDir())
	return err == nil && info.IsDir()
}

// profileLocked reports whether another Chrome holds the profile open.
func (s *Session) profileLocked() bool {
	_, err := os.Lstat(filepath.Join(s.ProfileDir(), "SingletonLock"))
	return err == nil
}

// chromePath locates the Chrome binary for this platform.
func chromePath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		path := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: Chrome not found at %s", ErrUnavailable, path)
		}
		return path, nil
	case "linux":
		candidates := []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}
		for _, candidate := range candidates {
			if path, err := exec.LookPath(candidate); err == nil {
				return path, nil
			}
		}
		return "", fmt.Errorf("%w: Chrome not found, tried %s", ErrUnavailable, strings.Join(candidates, ", "))
	default:
		return "", fmt.Errorf("%w: unsupported platform %s", ErrUnavailable, runtime.GOOS)
	}
}

// launch starts Chrome with DevTools enabled and returns the process. The
// caller must stop it on every path.
func (s *Session) launch(ctx context.Context, headless bool) (*exec.Cmd, error) {
	path, err := chromePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.ProfileDir(), 0o700); err != nil {
		return nil, fmt.Errorf("create chrome profile dir: %w", err)
	}

	// A non-default user-data-dir is required for remote debugging on
	// Chrome 136+, and gives us login persistence for free.
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", s.port),
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-extensions",
		"--user-data-dir=" + s.ProfileDir(),
		"--remote-allow-origins=*",
	}
	if headless {
		args = append(args, "--headless=new")
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	log.Debugf("launched chrome pid=%d port=%d headless=%v", cmd.Process.Pid, s.port, headless)
	return cmd, nil
}

// stop terminates a launched Chrome, escalating to SIGKILL when it does
// not exit promptly.
func stop(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(os.Interrupt)

	done := make(chan struct{})
	go func() {
		_, _ = cmd.Process.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}
}

// waitForDevTools polls the /json/version endpoint until Chrome answers.
func (s *Session) waitForDevTools(ctx context.Context) error {
	endpoint := fmt.Sprintf("http://localhost:%d/json/version", s.port)
	var lastErr error
	for i := 0; i < launchRetries; i++ {
		var version struct {
			WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
		}
		if lastErr = getJSON(ctx, s.httpClient, endpoint, &version); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(launchWait):
		}
	}
	return fmt.Errorf("%w: devtools not reachable on port %d: %v", ErrUnavailable, s.port, lastErr)
}

// findNotebookPage returns a page target on the NotebookLM origin,
// creating one when none is open.
func (s *Session) findNotebookPage(ctx context.Context) (page, error) {
	var pages []page
	listURL := fmt.Sprintf("http://localhost:%d/json", s.port)
	if err := getJSON(ctx, s.httpClient, listURL, &pages); err != nil {
		return page{}, fmt.Errorf("list devtools pages: %w", err)
	}
	for _, p := range pages {
		if strings.Contains(p.URL, "notebooklm.google.com") && p.WebSocketDebuggerURL != "" {
			return p, nil
		}
	}

	var created page
	newURL := fmt.Sprintf("http://localhost:%d/json/new?%s", s.port, url.QueryEscape(notebookURL))
	if err := putJSON(ctx, s.httpClient, newURL, &created); err != nil {
		return page{}, fmt.Errorf("open notebook page: %w", err)
	}
	if created.WebSocketDebuggerURL == "" {
		return page{}, fmt.Errorf("open notebook page: no debugger url in response")
	}
	return created, nil
}

// loggedInURL reports whether a page URL proves an authenticated session.
// A login-domain URL is a definitive no; anything unrecognized is treated
// as not logged in.
func loggedInURL(pageURL string) bool {
	if strings.Contains(pageURL, loginDomain) {
		return false
	}
	return strings.Contains(pageURL, "notebooklm.google.com")
}

// settleOnApp forces the page onto the app URL and waits for the redirect
// chain to settle, on either the app or the login domain. An unexpired
// session lands on the app; an expired one is bounced to the login domain.
func settleOnApp(ctx context.Context, conn *cdpConn) (string, error) {
	if err := conn.navigate(notebookURL); err != nil {
		return "", err
	}
	deadline := time.Now().Add(navigationSettleWait)
	for {
		pageURL, err := conn.currentURL()
		if err != nil {
			return "", err
		}
		if loggedInURL(pageURL) || strings.Contains(pageURL, loginDomain) {
			return pageURL, nil
		}
		if time.Now().After(deadline) {
			return pageURL, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// extractBundle pulls cookies and page tokens out of a connected page.
func extractBundle(conn *cdpConn) (auth.Bundle, error) {
	cookies, err := conn.cookies()
	if err != nil {
		return auth.Bundle{}, err
	}
	bundle := auth.Bundle{
		Cookies:     cookies,
		ExtractedAt: float64(time.Now().Unix()),
	}
	if err := bundle.Validate(); err != nil {
		return auth.Bundle{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	html, err := conn.pageHTML()
	if err != nil {
		return auth.Bundle{}, err
	}
	csrf, _, sessionID := auth.ExtractPageTokens([]byte(html))
	bundle.CSRFToken = csrf
	bundle.SessionID = sessionID
	return bundle, nil
}

// Relogin extracts a fresh credential bundle without user interaction.
//
// It requires an existing profile with a saved Google login; when the
// saved login is gone or the profile is busy it fails with ErrUnavailable.
// The headless Chrome is stopped on every path.
func (s *Session) Relogin(ctx context.Context) (auth.Bundle, error) {
	if !s.HasProfile() {
		return auth.Bundle{}, fmt.Errorf("%w: no saved browser profile, run `notebooklm auth` first", ErrUnavailable)
	}
	if s.profileLocked() {
		return auth.Bundle{}, fmt.Errorf("%w: browser profile is in use by another Chrome", ErrUnavailable)
	}

	cmd, err := s.launch(ctx, true)
	if err != nil {
		return auth.Bundle{}, err
	}
	defer stop(cmd)

	if err := s.waitForDevTools(ctx); err != nil {
		return auth.Bundle{}, err
	}
	target, err := s.findNotebookPage(ctx)
	if err != nil {
		return auth.Bundle{}, err
	}

	conn, err := dialCDP(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		return auth.Bundle{}, err
	}
	defer conn.Close()

	// The target tab can be mid-load or restored onto a stale URL; force it
	// onto the app and let any auth redirect play out before judging the
	// session.
	pageURL, err := settleOnApp(ctx, conn)
	if err != nil {
		return auth.Bundle{}, err
	}
	if !loggedInURL(pageURL) {
		return auth.Bundle{}, fmt.Errorf("%w: saved login has expired, run `notebooklm auth` to log in again", ErrUnavailable)
	}

	return extractBundle(conn)
}

// Login runs the interactive flow: a visible Chrome window where the user
// logs in to Google, polled until the NotebookLM app loads. maxWait bounds
// the whole flow.
func (s *Session) Login(ctx context.Context, maxWait time.Duration) (auth.Bundle, error) {
	if s.profileLocked() {
		return auth.Bundle{}, fmt.Errorf("%w: browser profile is in use, close the previous auth window first", ErrUnavailable)
	}

	cmd, err := s.launch(ctx, false)
	if err != nil {
		return auth.Bundle{}, err
	}
	defer stop(cmd)

	if err := s.waitForDevTools(ctx); err != nil {
		return auth.Bundle{}, err
	}
	target, err := s.findNotebookPage(ctx)
	if err != nil {
		return auth.Bundle{}, err
	}

	log.Info("waiting for Google login in the Chrome window")
	deadline := time.Now().Add(maxWait)
	for {
		conn, err := dialCDP(ctx, target.WebSocketDebuggerURL)
		if err != nil {
			return auth.Bundle{}, err
		}

		pageURL, err := conn.currentURL()
		if err == nil && loggedInURL(pageURL) {
			bundle, err := extractBundle(conn)
			conn.Close()
			if err == nil {
				return bundle, nil
			}
			log.Debugf("logged in but extraction incomplete: %v", err)
		} else {
			conn.Close()
		}

		if time.Now().After(deadline) {
			return auth.Bundle{}, fmt.Errorf("%w: login not completed within %s", ErrUnavailable, maxWait)
		}
		select {
		case <-ctx.Done():
			return auth.Bundle{}, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
