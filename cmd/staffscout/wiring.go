package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/staffscout/internal/config"
	"github.com/user/staffscout/internal/linkedin"
	"github.com/user/staffscout/internal/proxy"
	"github.com/user/staffscout/internal/service"
	"github.com/user/staffscout/internal/storage"
)

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newLinkedInClient builds the shared client for the configured session mode.
// Interactive logins happen lazily, on the first request.
func newLinkedInClient(cfg *config.Config, logger *zap.Logger) (*linkedin.Client, error) {
	proxyManager, err := proxy.NewManager(cfg.ProxyList(), nil)
	if err != nil {
		return nil, fmt.Errorf("parsing PROXIES: %w", err)
	}
	httpClient := proxyManager.NewHTTPClient(cfg.HTTPTimeoutDuration())
	userAgent := proxyManager.GetUserAgent()

	var provider linkedin.Provider
	switch cfg.SessionMode {
	case config.SessionModePassword:
		provider = linkedin.PasswordProvider{
			BaseURL:    cfg.LinkedInBaseURL,
			HTTPClient: httpClient,
			Username:   cfg.LinkedInUsername,
			Password:   cfg.LinkedInPassword,
			UserAgent:  userAgent,
			Logger:     logger,
		}
	case config.SessionModeBrowser:
		provider = linkedin.BrowserProvider{
			BaseURL:    cfg.LinkedInBaseURL,
			HTTPClient: httpClient,
			UserAgent:  userAgent,
			Timeout:    cfg.BrowserLoginTimeoutDuration(),
			Logger:     logger,
		}
	default:
		provider = linkedin.CookieProvider{
			BaseURL:    cfg.LinkedInBaseURL,
			HTTPClient: httpClient,
			LiAt:       cfg.LiAt,
			JSessionID: cfg.JSessionID,
			UserAgent:  userAgent,
		}
	}
	logger.Info("linkedin session configured",
		zap.String("mode", cfg.SessionMode),
		zap.Int("proxies", len(cfg.ProxyList())))

	return linkedin.NewClient(linkedin.NewCachedProvider(provider), cfg.RequestMinIntervalDuration(), logger), nil
}

// stores holds whichever persistence layers are configured.
type stores struct {
	pg    *storage.PostgresStore
	redis *storage.RedisStore
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{}
	if cfg.PostgresURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
		s.pg = pg
		logger.Info("PostgreSQL connection pool established")
	} else {
		logger.Info("POSTGRES_URL not set, run history disabled")
	}

	if cfg.RedisAddr != "" {
		rs := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			s.close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		s.redis = rs
		logger.Info("Redis connection established")
	} else {
		logger.Info("REDIS_ADDR not set, organization cache and scrape locks disabled")
	}
	return s, nil
}

// apply sets the configured stores on opts; unset stores stay nil interfaces.
func (s *stores) apply(opts *service.Options) {
	if s.pg != nil {
		opts.Runs = s.pg
	}
	if s.redis != nil {
		opts.Cache = s.redis
	}
}

func (s *stores) close() {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
}
