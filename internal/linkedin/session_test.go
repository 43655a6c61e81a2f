package linkedin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStripsQuotesFromCSRF(t *testing.T) {
	s, err := NewSession("https://www.linkedin.com", nil, []*http.Cookie{
		{Name: "li_at", Value: "abc", Path: "/"},
		{Name: "JSESSIONID", Value: `"ajax:42"`, Path: "/"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "ajax:42", s.CSRFToken())
}

func TestNewSessionRequiresCookies(t *testing.T) {
	_, err := NewSession("https://www.linkedin.com", nil, []*http.Cookie{
		{Name: "JSESSIONID", Value: "ajax:42", Path: "/"},
	}, "")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = NewSession("https://www.linkedin.com", nil, []*http.Cookie{
		{Name: "li_at", Value: "abc", Path: "/"},
	}, "")
	assert.ErrorIs(t, err, ErrMissingCSRF)

	_, err = CookieProvider{BaseURL: "https://www.linkedin.com"}.Session(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

type countingProvider struct {
	baseURL string
	calls   int
	err     error
}

func (p *countingProvider) Session(ctx context.Context) (*Session, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	base := p.baseURL
	if base == "" {
		base = "https://www.linkedin.com"
	}
	return CookieProvider{BaseURL: base, LiAt: "a", JSessionID: "b"}.Session(ctx)
}

func TestCachedProviderLogsInOnce(t *testing.T) {
	inner := &countingProvider{}
	p := NewCachedProvider(inner)

	first, err := p.Session(context.Background())
	require.NoError(t, err)
	second, err := p.Session(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, inner.calls)

	p.Invalidate()
	_, err = p.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProviderDoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{err: errors.New("no browser")}
	p := NewCachedProvider(inner)

	_, err := p.Session(context.Background())
	require.Error(t, err)
	_, err = p.Session(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func newLoginServer(t *testing.T, password string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "ajax:999", Path: "/"})
		w.Write([]byte(`<html><body><form method="post">
			<input type="hidden" name="csrfToken" value="other">
			<input type="hidden" name="loginCsrfParam" value="csrf-abc">
		</form></body></html>`))
	})
	mux.HandleFunc("POST /checkpoint/lg/login-submit", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("loginCsrfParam") != "csrf-abc" || r.PostForm.Get("session_password") != password {
			http.Redirect(w, r, "/checkpoint/challenge/xyz", http.StatusSeeOther)
			return
		}
		assert.Equal(t, "false", r.PostForm.Get("isJsEnabled"))
		http.SetCookie(w, &http.Cookie{Name: "li_at", Value: "session-token", Path: "/"})
		http.Redirect(w, r, "/feed", http.StatusSeeOther)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPasswordProviderLogsIn(t *testing.T) {
	srv := newLoginServer(t, "hunter2")

	s, err := PasswordProvider{BaseURL: srv.URL, Username: "me@example.com", Password: "hunter2"}.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ajax:999", s.CSRFToken())
}

func TestPasswordProviderChallenge(t *testing.T) {
	srv := newLoginServer(t, "hunter2")

	_, err := PasswordProvider{BaseURL: srv.URL, Username: "me@example.com", Password: "wrong"}.Session(context.Background())
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestPasswordProviderMissingFormToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	defer srv.Close()

	_, err := PasswordProvider{BaseURL: srv.URL, Username: "u", Password: "p"}.Session(context.Background())
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestToHTTPCookies(t *testing.T) {
	cookies := toHTTPCookies([]*network.Cookie{
		{Name: "li_at", Value: "abc", Domain: ".www.linkedin.com", Path: "/", Expires: 1900000000, Secure: true, HTTPOnly: true},
		{Name: "lang", Value: "v=2", Path: "/", Expires: -1},
	})
	require.Len(t, cookies, 2)
	assert.Equal(t, "li_at", cookies[0].Name)
	assert.Equal(t, int64(1900000000), cookies[0].Expires.Unix())
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[1].Expires.IsZero())

	assert.True(t, hasCookie([]*network.Cookie{{Name: "li_at", Value: "x"}}, "li_at"))
	assert.False(t, hasCookie([]*network.Cookie{{Name: "li_at"}}, "li_at"))
}
