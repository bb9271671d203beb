// Package backoff provides the delay policies used between lock acquisition attempts.
package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// Strategy returns how long to wait after the given failed attempt (1-based).
type Strategy interface {
	Next(attempt int) time.Duration
}

type StrategyFunc func(attempt int) time.Duration

func (f StrategyFunc) Next(attempt int) time.Duration { return f(attempt) }

// Fixed waits the same interval after every attempt. Under heavy contention
// all waiters retry in lockstep.
func Fixed(interval time.Duration) Strategy {
	return StrategyFunc(func(int) time.Duration { return interval })
}

// Exponential doubles base after every attempt, capped at max.
func Exponential(base, max time.Duration) Strategy {
	return StrategyFunc(func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		delay := base
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay >= max || delay <= 0 {
				return max
			}
		}
		if delay > max {
			return max
		}
		return delay
	})
}

type jittered struct {
	strategy Strategy
	fraction float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// Jittered randomizes the delay of strategy by up to ±fraction of its value.
func Jittered(strategy Strategy, fraction float64) Strategy {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return &jittered{
		strategy: strategy,
		fraction: fraction,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (j *jittered) Next(attempt int) time.Duration {
	delay := j.strategy.Next(attempt)
	spread := float64(delay) * j.fraction
	if spread <= 0 {
		return delay
	}

	j.mu.Lock()
	offset := (j.rnd.Float64()*2 - 1) * spread
	j.mu.Unlock()

	return delay + time.Duration(offset)
}
