package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserProvider opens a visible Chrome window on the login page and waits
// for the user to finish logging in, then lifts the session cookies out of it.
type BrowserProvider struct {
	BaseURL      string
	HTTPClient   *http.Client
	UserAgent    string
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *zap.Logger
}

func (p BrowserProvider) Session(ctx context.Context) (*Session, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	userAgent := p.UserAgent
	if userAgent == "" {
		userAgent = MobileUserAgent
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	poll := p.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, timeout)
	defer cancelTimeout()

	if err := chromedp.Run(taskCtx, chromedp.Navigate(p.BaseURL+"/login")); err != nil {
		return nil, fmt.Errorf("opening login page: %w", err)
	}
	logger.Info("waiting for login in the browser window", zap.Duration("timeout", timeout))

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		var cookies []*network.Cookie
		err := chromedp.Run(taskCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().WithURLs([]string{p.BaseURL}).Do(ctx)
			return err
		}))
		if err != nil {
			if taskCtx.Err() != nil {
				return nil, ErrLoginTimedOut
			}
			return nil, fmt.Errorf("reading browser cookies: %w", err)
		}

		if hasCookie(cookies, sessionCookie) {
			logger.Info("browser login detected", zap.Int("cookies", len(cookies)))
			return NewSession(p.BaseURL, p.HTTPClient, toHTTPCookies(cookies), userAgent)
		}

		select {
		case <-taskCtx.Done():
			return nil, ErrLoginTimedOut
		case <-ticker.C:
		}
	}
}

func hasCookie(cookies []*network.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func toHTTPCookies(cookies []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, hc)
	}
	return out
}
