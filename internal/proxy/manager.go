package proxy

import (
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// mobileUserAgents are agents the voyager API serves full JSON to.
var mobileUserAgents = []string{
	"Mozilla/5.0 (Linux; U; Android 4.4.2; en-us; SCH-I535 Build/KOT49H) AppleWebKit/534.30 (KHTML, like Gecko) Version/4.0 Mobile Safari/534.30",
}

// Manager handles the rotation of proxies and user agents.
type Manager struct {
	proxies    []*url.URL
	userAgents []string
	mu         sync.Mutex
	proxyIndex int
	rnd        *rand.Rand
}

// NewManager parses the proxy list; invalid entries are returned as an error.
// An empty agent list falls back to the mobile agents.
func NewManager(proxies []string, userAgents []string) (*Manager, error) {
	m := &Manager{
		userAgents: userAgents,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if len(m.userAgents) == 0 {
		m.userAgents = mobileUserAgents
	}
	for _, p := range proxies {
		if p == "" {
			continue
		}
		u, err := url.Parse(p)
		if err != nil {
			return nil, err
		}
		m.proxies = append(m.proxies, u)
	}
	return m, nil
}

// GetProxy returns a proxy URL from the list, rotating sequentially.
func (m *Manager) GetProxy() *url.URL {
	if len(m.proxies) == 0 {
		return nil // No proxy
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p
}

// GetUserAgent returns a random user agent string. A session keeps the agent
// it logged in with, so call this once per session.
func (m *Manager) GetUserAgent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userAgents[m.rnd.Intn(len(m.userAgents))]
}

// Proxy is an http.Transport proxy func; without configured proxies it
// defers to the environment.
func (m *Manager) Proxy(req *http.Request) (*url.URL, error) {
	if p := m.GetProxy(); p != nil {
		return p, nil
	}
	return http.ProxyFromEnvironment(req)
}

// NewHTTPClient returns an HTTP client with reasonable defaults for scraping,
// routed through the manager's proxies.
func (m *Manager) NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: m.Proxy,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
