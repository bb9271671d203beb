// Package distlock wires a lock backend to a Redis client.
//
// Two backends implement contracts.DistributedLock:
//   - "script": the lock package's own protocol, fixed lease without renewal.
//   - "redsync": delegates to redsync and renews held leases in the background.
package distlock

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/config"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/internal/locker"
	"github.com/soroosh-tanzadeh/distlock/lock"
	"github.com/soroosh-tanzadeh/distlock/store"
)

// New returns the backend named by backend over client.
func New(client redis.UniversalClient, backend string, cfg lock.Config, options ...store.Option) (contracts.DistributedLock, error) {
	switch backend {
	case config.BackendScript, "":
		s, err := store.NewRedisStore(client, options...)
		if err != nil {
			return nil, err
		}
		return lock.NewLocker(s, cfg)
	case config.BackendRedsync:
		return locker.NewRedsyncLocker(client, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", lock.ErrInvalidConfig, backend)
	}
}

// Client owns the Redis connection pool behind a lock backend.
type Client struct {
	contracts.DistributedLock

	redis   redis.UniversalClient
	store   *store.RedisStore
	monitor *store.Monitor
}

func Open(cfg *config.Config) (*Client, error) {
	if len(cfg.LogLevel) > 0 {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", lock.ErrInvalidConfig, err)
		}
		log.SetLevel(level)
	}

	client := cfg.Redis.NewClient()
	return newClient(client, cfg)
}

func newClient(client redis.UniversalClient, cfg *config.Config) (*Client, error) {
	s, err := store.NewRedisStore(client)
	if err != nil {
		client.Close()
		return nil, err
	}

	c := &Client{redis: client, store: s}

	switch cfg.Backend {
	case config.BackendRedsync:
		c.DistributedLock, err = locker.NewRedsyncLocker(client, cfg.Lock)
	default:
		c.DistributedLock, err = lock.NewLocker(s, cfg.Lock)
	}
	if err != nil {
		client.Close()
		return nil, err
	}

	if cfg.HealthCheckInterval > 0 {
		c.monitor, err = store.NewMonitor(s, cfg.HealthCheckInterval)
		if err != nil {
			client.Close()
			return nil, err
		}
		c.monitor.Start()
	}

	log.WithFields(log.Fields{"backend": cfg.Backend, "addrs": cfg.Redis.Addrs}).Debug("Lock client ready")
	return c, nil
}

// Store gives access to plain reads and writes on the lock store.
func (c *Client) Store() store.Store {
	return c.store
}

// Healthy reports the last health check result. Without a monitor it is always true.
func (c *Client) Healthy() bool {
	if c.monitor == nil {
		return true
	}
	return c.monitor.Healthy()
}

func (c *Client) Close() error {
	var err error
	if c.monitor != nil {
		err = c.monitor.Stop()
	}
	return errors.Join(err, c.redis.Close())
}
