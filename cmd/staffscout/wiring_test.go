package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/staffscout/internal/config"
	"github.com/user/staffscout/internal/service"
)

func TestNewLinkedInClientModes(t *testing.T) {
	for _, mode := range []string{config.SessionModeCookie, config.SessionModePassword, config.SessionModeBrowser} {
		t.Run(mode, func(t *testing.T) {
			cfg := &config.Config{
				SessionMode:     mode,
				LinkedInBaseURL: "https://www.linkedin.com",
				HTTPTimeout:     5,
				Proxies:         "http://127.0.0.1:3128",
			}
			client, err := newLinkedInClient(cfg, zap.NewNop())
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewLinkedInClientRejectsBadProxy(t *testing.T) {
	cfg := &config.Config{SessionMode: config.SessionModeCookie, Proxies: "http://[::1"}
	_, err := newLinkedInClient(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenStoresLeavesUnsetStoresNil(t *testing.T) {
	st, err := openStores(context.Background(), &config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer st.close()

	var opts service.Options
	st.apply(&opts)
	assert.Nil(t, opts.Runs)
	assert.Nil(t, opts.Cache)
}

func TestOpenStoresWithRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	st, err := openStores(context.Background(), &config.Config{RedisAddr: mini.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer st.close()

	var opts service.Options
	st.apply(&opts)
	assert.Nil(t, opts.Runs)
	assert.NotNil(t, opts.Cache)
}
