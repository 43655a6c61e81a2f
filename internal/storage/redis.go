package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/user/staffscout/internal/domain"
)

// releaseLock deletes the lock only while it still belongs to the caller.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore caches organization lookups and guards against two scrapes of
// the same company running at once.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func companyKey(prefix, company string) string {
	return fmt.Sprintf("%s:%s", prefix, strings.ToLower(strings.TrimSpace(company)))
}

// GetOrganization returns a cached lookup; found is false on a miss.
func (s *RedisStore) GetOrganization(ctx context.Context, company string) (domain.Organization, bool, error) {
	val, err := s.client.Get(ctx, companyKey("org", company)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Organization{}, false, nil
	}
	if err != nil {
		return domain.Organization{}, false, err
	}
	var org domain.Organization
	if err := json.Unmarshal(val, &org); err != nil {
		return domain.Organization{}, false, err
	}
	return org, true, nil
}

// CacheOrganization stores a lookup with a TTL so staff counts are refreshed.
func (s *RedisStore) CacheOrganization(ctx context.Context, company string, org domain.Organization, ttl time.Duration) error {
	val, err := json.Marshal(org)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, companyKey("org", company), val, ttl).Err()
}

// AcquireScrapeLock claims a company for one run; false means another run holds it.
func (s *RedisStore) AcquireScrapeLock(ctx context.Context, company, runID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, companyKey("scrape-lock", company), runID, ttl).Result()
}

// ReleaseScrapeLock frees the company if runID still holds it.
func (s *RedisStore) ReleaseScrapeLock(ctx context.Context, company, runID string) error {
	return releaseLock.Run(ctx, s.client, []string{companyKey("scrape-lock", company)}, runID).Err()
}

// IncrementScrapeCount counts scrapes per company over the last week.
func (s *RedisStore) IncrementScrapeCount(ctx context.Context, company string) (int64, error) {
	key := companyKey("scrapes", company)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// Set an expiration on the counter so it doesn't live forever
	if err := s.client.Expire(ctx, key, 7*24*time.Hour).Err(); err != nil {
		return count, fmt.Errorf("setting expiry on %s: %w", key, err)
	}
	return count, nil
}
