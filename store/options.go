package store

import (
	"github.com/Masterminds/semver/v3"
)

type Option func(*RedisStore)

// WithRedisVersion skips server version detection.
func WithRedisVersion(version string) Option {
	return func(r *RedisStore) {
		r.redisVersion = semver.MustParse(version)
	}
}

// WithPreloadScripts loads the lock scripts into the server script cache up front.
func WithPreloadScripts(preload bool) Option {
	return func(r *RedisStore) {
		r.preloadScripts = preload
	}
}
