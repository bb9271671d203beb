// Package config loads lock and Redis settings from flags, environment
// variables and .env files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/soroosh-tanzadeh/distlock/lock"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	BackendScript  = "script"
	BackendRedsync = "redsync"

	EnvPrefix = "distlock"
)

type RedisConfig struct {
	// Addrs holds one address for a single node, several for a cluster, or the
	// sentinels when MasterName is set.
	Addrs      []string
	MasterName string
	Username   string
	Password   string
	DB         int
	PoolSize   int
}

type Config struct {
	Backend             string
	Redis               RedisConfig
	Lock                lock.Config
	HealthCheckInterval time.Duration
	LogLevel            string
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendScript)
	v.SetDefault("redis-addrs", "127.0.0.1:6379")
	v.SetDefault("redis-master", "")
	v.SetDefault("redis-username", "")
	v.SetDefault("redis-password", "")
	v.SetDefault("redis-db", 0)
	v.SetDefault("redis-pool-size", 10)
	v.SetDefault("lock-prefix", lock.DefaultKeyPrefix)
	v.SetDefault("lock-lease", lock.DefaultLease)
	v.SetDefault("lock-retry-interval", lock.DefaultRetryInterval)
	v.SetDefault("lock-backoff", lock.BackoffFixed)
	v.SetDefault("lock-max-retry-interval", time.Duration(0))
	v.SetDefault("lock-jitter", 0.0)
	v.SetDefault("lock-token-length", lock.DefaultTokenLength)
	v.SetDefault("health-interval", time.Duration(0))
	v.SetDefault("log-level", "info")
}

// InitEnv loads .env files and maps DISTLOCK_* variables onto config keys,
// e.g. DISTLOCK_LOCK_LEASE for "lock-lease".
func InitEnv(v *viper.Viper) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// BindFlags registers the config flags on flags and binds them to v.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.String("backend", BackendScript, "lock backend (script, redsync)")
	flags.String("redis-addrs", "127.0.0.1:6379", "comma separated Redis addresses")
	flags.String("redis-master", "", "sentinel master name")
	flags.String("redis-username", "", "Redis ACL username")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Int("redis-pool-size", 10, "maximum number of pooled Redis connections")
	flags.String("lock-prefix", lock.DefaultKeyPrefix, "namespace prepended to resource names")
	flags.Duration("lock-lease", lock.DefaultLease, "lease set on acquired locks")
	flags.Duration("lock-retry-interval", lock.DefaultRetryInterval, "delay between acquisition attempts")
	flags.String("lock-backoff", lock.BackoffFixed, "retry policy (fixed, exponential, jittered)")
	flags.Duration("lock-max-retry-interval", 0, "upper bound of exponential delays (0 means 30x the retry interval)")
	flags.Float64("lock-jitter", 0, "jitter fraction for the jittered backoff (0 means 0.2)")
	flags.Int("lock-token-length", lock.DefaultTokenLength, "random characters in a lock token")
	flags.Duration("health-interval", 0, "store health check interval (0 disables)")
	flags.String("log-level", "info", "log level")
	return v.BindPFlags(flags)
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Backend: v.GetString("backend"),
		Redis: RedisConfig{
			Addrs:      splitAddrs(v.GetString("redis-addrs")),
			MasterName: v.GetString("redis-master"),
			Username:   v.GetString("redis-username"),
			Password:   v.GetString("redis-password"),
			DB:         v.GetInt("redis-db"),
			PoolSize:   v.GetInt("redis-pool-size"),
		},
		Lock: lock.Config{
			KeyPrefix:        v.GetString("lock-prefix"),
			Lease:            v.GetDuration("lock-lease"),
			RetryInterval:    v.GetDuration("lock-retry-interval"),
			Backoff:          v.GetString("lock-backoff"),
			MaxRetryInterval: v.GetDuration("lock-max-retry-interval"),
			JitterFraction:   v.GetFloat64("lock-jitter"),
			TokenLength:      v.GetInt("lock-token-length"),
		},
		HealthCheckInterval: v.GetDuration("health-interval"),
		LogLevel:            v.GetString("log-level"),
	}

	if cfg.Backend != BackendScript && cfg.Backend != BackendRedsync {
		return nil, fmt.Errorf("%w: unknown backend %q", lock.ErrInvalidConfig, cfg.Backend)
	}
	if len(cfg.Redis.Addrs) == 0 {
		return nil, fmt.Errorf("%w: no redis address", lock.ErrInvalidConfig)
	}
	if err := cfg.Lock.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitAddrs(raw string) []string {
	var addrs []string
	for _, addr := range strings.Split(raw, ",") {
		if addr = strings.TrimSpace(addr); len(addr) > 0 {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// NewClient builds a pooled client: a failover client when MasterName is set,
// a cluster client for several addresses, a plain client otherwise.
func (r RedisConfig) NewClient() redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:      r.Addrs,
		MasterName: r.MasterName,
		Username:   r.Username,
		Password:   r.Password,
		DB:         r.DB,
		PoolSize:   r.PoolSize,
	})
}
