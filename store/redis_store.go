package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/contracts"
)

var setNXPXVersion = semver.MustParse("2.6.12")

// RedisStore implements Store on top of a go-redis client. The client's
// connection pool bounds the number of in-flight store operations.
type RedisStore struct {
	client redis.UniversalClient

	redisVersion   *semver.Version
	preloadScripts bool

	createScript *redis.Script
}

func NewRedisStore(client redis.UniversalClient, options ...Option) (*RedisStore, error) {
	s := &RedisStore{
		client: client,
	}

	for _, option := range options {
		option(s)
	}

	// Fetch Redis version
	if s.redisVersion == nil {
		info, err := client.Info(context.Background(), "server").Result()
		if err == nil {
			s.redisVersion = parseRedisVersion(info)
		}
	}

	s.createScript = atomicCreate
	if s.redisVersion != nil && s.redisVersion.LessThan(setNXPXVersion) {
		log.WithField("redisVersion", s.redisVersion.String()).Warn("Redis does not support SET NX PX, using SETNX and PEXPIRE")
		s.createScript = atomicCreateLegacy
	}

	if s.preloadScripts {
		if err := registerScripts(context.Background(), client, s.createScript); err != nil {
			return nil, unavailable(err)
		}
	}

	return s, nil
}

// parseRedisVersion reads redis_version from an INFO reply. Cluster clients
// return one reply per node; the first version found is used.
func parseRedisVersion(info string) *semver.Version {
	for _, line := range strings.Split(info, "\n") {
		value, found := strings.CutPrefix(strings.TrimSpace(line), "redis_version:")
		if !found {
			continue
		}
		version, err := semver.NewVersion(value)
		if err != nil {
			return nil
		}
		return version
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", contracts.ErrStoreUnavailable, err)
}

func (s *RedisStore) CreateIfAbsent(ctx context.Context, key, value string, lease time.Duration) (bool, error) {
	created, err := runStatusScript(ctx, s.createScript, s.client, key, value, lease.Milliseconds())
	if err != nil {
		return false, unavailable(err)
	}
	return created, nil
}

func (s *RedisStore) DeleteIfEquals(ctx context.Context, key, value string) (bool, error) {
	deleted, err := runStatusScript(ctx, atomicDelete, s.client, key, value)
	if err != nil {
		return false, unavailable(err)
	}
	return deleted, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable(err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Stats() PoolStats {
	stats := s.client.PoolStats()
	if stats == nil {
		return PoolStats{}
	}
	return PoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// Client exposes the underlying client, e.g. for the redsync backend.
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

func (s *RedisStore) RedisVersion() *semver.Version {
	return s.redisVersion
}
