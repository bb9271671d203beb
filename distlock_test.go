package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/soroosh-tanzadeh/distlock/config"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/internal/locker"
	"github.com/soroosh-tanzadeh/distlock/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	redisServer, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(redisServer.Close)

	return redis.NewClient(&redis.Options{Addr: redisServer.Addr()}), redisServer
}

func TestNew_ShouldSelectBackend(t *testing.T) {
	client, _ := setupRedis(t)
	defer client.Close()

	scriptLock, err := New(client, config.BackendScript, lock.DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &lock.Locker{}, scriptLock)

	redsyncLock, err := New(client, config.BackendRedsync, lock.DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &locker.RedsyncLocker{}, redsyncLock)

	_, err = New(client, "etcd", lock.DefaultConfig())
	assert.ErrorIs(t, err, lock.ErrInvalidConfig)
}

func TestBackends_ShouldShareContract(t *testing.T) {
	for _, backend := range []string{config.BackendScript, config.BackendRedsync} {
		t.Run(backend, func(t *testing.T) {
			client, redisServer := setupRedis(t)
			defer client.Close()

			cfg := lock.DefaultConfig()
			cfg.RetryInterval = 10 * time.Millisecond
			l, err := New(client, backend, cfg)
			require.NoError(t, err)

			other := contracts.WithOwner(context.Background())
			err = l.RunExclusive(context.Background(), "job:42", time.Second, func(ctx context.Context) error {
				assert.True(t, redisServer.Exists("lock:job:42"))

				acquired, err := l.Lock(other, "job:42", 0)
				assert.NoError(t, err)
				assert.False(t, acquired)

				return l.RunExclusive(ctx, "job:42", 0, func(ctx context.Context) error { return nil })
			})
			assert.NoError(t, err)
			assert.False(t, redisServer.Exists("lock:job:42"))

			assert.ErrorIs(t, l.Unlock(other, "job:42"), contracts.ErrIllegalLockState)
		})
	}
}

func TestClient_ShouldRunHealthMonitor(t *testing.T) {
	client, redisServer := setupRedis(t)

	c, err := newClient(client, &config.Config{
		Backend:             config.BackendScript,
		Lock:                lock.DefaultConfig(),
		HealthCheckInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Eventually(t, c.Healthy, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Store().Set(context.Background(), "plain", "value", 0))
	value, err := redisServer.Get("plain")
	assert.NoError(t, err)
	assert.Equal(t, "value", value)

	assert.NoError(t, c.Close())
}
