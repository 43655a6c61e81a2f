package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// PasswordProvider logs in by submitting the plain login form. Accounts that
// hit a verification challenge need the browser or cookie provider instead.
type PasswordProvider struct {
	BaseURL    string
	HTTPClient *http.Client
	Username   string
	Password   string
	UserAgent  string
	Logger     *zap.Logger
}

func (p PasswordProvider) Session(ctx context.Context) (*Session, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := url.Parse(strings.TrimRight(p.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	if p.HTTPClient != nil {
		clone := *p.HTTPClient
		client = &clone
	}
	client.Jar = jar
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	userAgent := p.UserAgent
	if userAgent == "" {
		userAgent = MobileUserAgent
	}

	csrf, err := p.fetchLoginCSRF(ctx, client, base, userAgent)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"session_key":      {p.Username},
		"session_password": {p.Password},
		"isJsEnabled":      {"false"},
		"loginCsrfParam":   {csrf},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base.String()+"/checkpoint/lg/login-submit", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting login form: %w", err)
	}
	resp.Body.Close()

	if loc := resp.Header.Get("Location"); strings.Contains(loc, "checkpoint/challenge") {
		logger.Warn("login requires a verification challenge", zap.String("location", loc))
		return nil, fmt.Errorf("%w: verification challenge required", ErrLoginFailed)
	}

	s, err := newSessionWithJar(base, p.HTTPClient, jar, userAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	logger.Info("logged in with password", zap.String("username", p.Username))
	return s, nil
}

func (p PasswordProvider) fetchLoginCSRF(ctx context.Context, client *http.Client, base *url.URL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String()+"/login", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching login page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing login page: %w", err)
	}
	csrf, ok := doc.Find(`input[name="loginCsrfParam"]`).First().Attr("value")
	if !ok || csrf == "" {
		return "", fmt.Errorf("%w: login page has no loginCsrfParam", ErrLoginFailed)
	}
	return csrf, nil
}
