package proxy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProxyRotates(t *testing.T) {
	m, err := NewManager([]string{"http://p1:8000", "", "http://p2:8000"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "p1:8000", m.GetProxy().Host)
	assert.Equal(t, "p2:8000", m.GetProxy().Host)
	assert.Equal(t, "p1:8000", m.GetProxy().Host)
}

func TestGetProxyEmpty(t *testing.T) {
	m, err := NewManager(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, m.GetProxy())
}

func TestNewManagerRejectsBadProxy(t *testing.T) {
	_, err := NewManager([]string{"http://bad host:80\x7f"}, nil)
	assert.Error(t, err)
}

func TestGetUserAgentDefaultsToMobile(t *testing.T) {
	m, err := NewManager(nil, nil)
	require.NoError(t, err)
	assert.Contains(t, m.GetUserAgent(), "Mobile Safari")

	m, err = NewManager(nil, []string{"custom-agent"})
	require.NoError(t, err)
	assert.Equal(t, "custom-agent", m.GetUserAgent())
}

func TestNewHTTPClientUsesManagerProxy(t *testing.T) {
	m, err := NewManager([]string{"http://p1:8000"}, nil)
	require.NoError(t, err)

	c := m.NewHTTPClient(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	req, err := http.NewRequest(http.MethodGet, "https://www.linkedin.com/", nil)
	require.NoError(t, err)
	u, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "p1:8000", u.Host)
}
