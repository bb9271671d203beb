package lock

import (
	"fmt"
	"time"

	"github.com/soroosh-tanzadeh/distlock/backoff"
	"github.com/soroosh-tanzadeh/distlock/contracts"
)

const (
	DefaultKeyPrefix     = "lock:"
	DefaultLease         = 100 * time.Second
	DefaultRetryInterval = time.Second
	DefaultTokenLength   = 4

	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
	BackoffJittered    = "jittered"
)

const ErrInvalidConfig = contracts.LockError("invalid lock config")

type Config struct {
	// KeyPrefix namespaces lock keys in the store. It is used as is, so an empty
	// prefix is honored; start from DefaultConfig to get "lock:".
	KeyPrefix string

	// Lease is the expiry set on the lock key. It is never renewed: a critical
	// section running longer than Lease loses exclusivity.
	Lease time.Duration

	RetryInterval time.Duration

	// Backoff is one of "fixed", "exponential" or "jittered".
	Backoff          string
	MaxRetryInterval time.Duration
	JitterFraction   float64

	// TokenLength is the number of random characters appended to the key to form a token.
	TokenLength int
}

func DefaultConfig() Config {
	return Config{
		KeyPrefix:     DefaultKeyPrefix,
		Lease:         DefaultLease,
		RetryInterval: DefaultRetryInterval,
		Backoff:       BackoffFixed,
		TokenLength:   DefaultTokenLength,
	}
}

// WithDefaults fills unset durations, backoff and token length. KeyPrefix is left as is.
func (c Config) WithDefaults() Config {
	if c.Lease == 0 {
		c.Lease = DefaultLease
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if len(c.Backoff) == 0 {
		c.Backoff = BackoffFixed
	}
	if c.MaxRetryInterval == 0 {
		c.MaxRetryInterval = 30 * c.RetryInterval
	}
	if c.JitterFraction == 0 {
		c.JitterFraction = 0.2
	}
	if c.TokenLength == 0 {
		c.TokenLength = DefaultTokenLength
	}
	return c
}

func (c Config) Validate() error {
	c = c.WithDefaults()
	if c.Lease < time.Millisecond {
		return fmt.Errorf("%w: lease must be at least 1ms, got %s", ErrInvalidConfig, c.Lease)
	}
	if c.RetryInterval < 0 {
		return fmt.Errorf("%w: negative retry interval %s", ErrInvalidConfig, c.RetryInterval)
	}
	if c.TokenLength < 0 {
		return fmt.Errorf("%w: negative token length %d", ErrInvalidConfig, c.TokenLength)
	}
	_, err := c.Strategy()
	return err
}

// Strategy builds the backoff strategy selected by Backoff.
func (c Config) Strategy() (backoff.Strategy, error) {
	c = c.WithDefaults()
	switch c.Backoff {
	case BackoffFixed:
		return backoff.Fixed(c.RetryInterval), nil
	case BackoffExponential:
		return backoff.Exponential(c.RetryInterval, c.MaxRetryInterval), nil
	case BackoffJittered:
		return backoff.Jittered(backoff.Exponential(c.RetryInterval, c.MaxRetryInterval), c.JitterFraction), nil
	default:
		return nil, fmt.Errorf("%w: unknown backoff %q", ErrInvalidConfig, c.Backoff)
	}
}

// Key returns the store key guarding resource.
func (c Config) Key(resource string) string {
	return c.KeyPrefix + resource
}
