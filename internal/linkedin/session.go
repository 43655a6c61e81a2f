// Package linkedin is the thin HTTP layer over the voyager API: session
// bootstrap, organization lookup and people search pages.
package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
)

const (
	DefaultBaseURL = "https://www.linkedin.com"

	// MobileUserAgent is the agent the voyager endpoints answer in full for.
	MobileUserAgent = "Mozilla/5.0 (Linux; U; Android 4.4.2; en-us; SCH-I535 " +
		"Build/KOT49H) AppleWebKit/534.30 (KHTML, like Gecko) " +
		"Version/4.0 Mobile Safari/534.30"

	sessionCookie = "li_at"
	csrfCookie    = "JSESSIONID"
)

var (
	ErrMissingCSRF   = errors.New("session has no JSESSIONID cookie to derive a csrf token from")
	ErrNotLoggedIn   = errors.New("session has no li_at cookie")
	ErrLoginFailed   = errors.New("login failed")
	ErrLoginTimedOut = errors.New("timed out waiting for login")
)

// Session is an authenticated handle shared by every request of a scrape.
type Session struct {
	client    *http.Client
	baseURL   *url.URL
	csrfToken string
	userAgent string
}

// NewSession builds a session from cookies already obtained by a login flow.
func NewSession(baseURL string, httpClient *http.Client, cookies []*http.Cookie, userAgent string) (*Session, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	jar.SetCookies(u, cookies)
	return newSessionWithJar(u, httpClient, jar, userAgent)
}

func newSessionWithJar(u *url.URL, httpClient *http.Client, jar http.CookieJar, userAgent string) (*Session, error) {
	var hasSession bool
	var csrf string
	for _, c := range jar.Cookies(u) {
		switch c.Name {
		case sessionCookie:
			hasSession = c.Value != ""
		case csrfCookie:
			csrf = strings.ReplaceAll(c.Value, `"`, "")
		}
	}
	if !hasSession {
		return nil, ErrNotLoggedIn
	}
	if csrf == "" {
		return nil, ErrMissingCSRF
	}

	client := &http.Client{}
	if httpClient != nil {
		clone := *httpClient
		client = &clone
	}
	client.Jar = jar
	client.CheckRedirect = nil

	if userAgent == "" {
		userAgent = MobileUserAgent
	}
	return &Session{client: client, baseURL: u, csrfToken: csrf, userAgent: userAgent}, nil
}

// CSRFToken is the token sent with every request.
func (s *Session) CSRFToken() string {
	return s.csrfToken
}

// newRequest builds a GET against pathAndQuery with the voyager headers set.
// pathAndQuery is used verbatim so restli parentheses survive unescaped.
func (s *Session) newRequest(ctx context.Context, pathAndQuery string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL.String()+pathAndQuery, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("X-RestLi-Protocol-Version", "2.0.0")
	req.Header.Set("X-Li-Track", `{"clientVersion":"1.13.1665"}`)
	req.Header.Set("Csrf-Token", s.csrfToken)
	return req, nil
}

// Provider obtains an authenticated session.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
}

// CookieProvider builds a session from cookies copied out of a browser.
type CookieProvider struct {
	BaseURL    string
	HTTPClient *http.Client
	LiAt       string
	JSessionID string
	UserAgent  string
}

func (p CookieProvider) Session(ctx context.Context) (*Session, error) {
	if p.LiAt == "" {
		return nil, ErrNotLoggedIn
	}
	cookies := []*http.Cookie{
		{Name: sessionCookie, Value: p.LiAt, Path: "/"},
		{Name: csrfCookie, Value: p.JSessionID, Path: "/"},
	}
	return NewSession(p.BaseURL, p.HTTPClient, cookies, p.UserAgent)
}

// CachedProvider logs in once and hands the same session to every caller
// until it is invalidated.
type CachedProvider struct {
	inner Provider

	mu      sync.Mutex
	session *Session
}

func NewCachedProvider(inner Provider) *CachedProvider {
	return &CachedProvider{inner: inner}
}

func (p *CachedProvider) Session(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		return p.session, nil
	}
	s, err := p.inner.Session(ctx)
	if err != nil {
		return nil, err
	}
	p.session = s
	return s, nil
}

// Invalidate drops the cached session so the next caller logs in again.
func (p *CachedProvider) Invalidate() {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
}
