package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
	"github.com/soroosh-tanzadeh/distlock/contracts"
	"github.com/soroosh-tanzadeh/distlock/internal/stats"
	"github.com/spf13/cobra"
)

var (
	benchWorkers    int
	benchIterations int
	benchWait       time.Duration
	benchHold       time.Duration

	benchCmd = &cobra.Command{
		Use:                "bench [resource]",
		Short:              "Measure lock contention from concurrent workers",
		Args:               cobra.ExactArgs(1),
		PersistentPreRunE:  openClient,
		PersistentPostRunE: closeClient,
		RunE:               runBench,
	}
)

func init() {
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 8, "number of concurrent workers")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 100, "total number of critical sections")
	benchCmd.Flags().DurationVar(&benchWait, "wait", 10*time.Second, "wait budget per acquisition")
	benchCmd.Flags().DurationVar(&benchHold, "hold", time.Millisecond, "time spent inside the critical section")
}

type benchResult struct {
	waits    []time.Duration
	timeouts int64
	failures int64
	overlaps int64
}

func bench(ctx context.Context, locker contracts.DistributedLock, resource string, workers, iterations int, wait, hold time.Duration) (*benchResult, error) {
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(r interface{}) {
		log.Errorf("Bench worker panic: %v", r)
	}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		inside   atomic.Int32
		timeouts atomic.Int64
		failures atomic.Int64
		overlaps atomic.Int64
		mu       sync.Mutex
		waits    = make([]time.Duration, 0, iterations)
		wg       sync.WaitGroup
	)

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			start := time.Now()
			err := locker.RunExclusive(ctx, resource, wait, func(ctx context.Context) error {
				waited := time.Since(start)
				if inside.Add(1) > 1 {
					overlaps.Add(1)
				}
				time.Sleep(hold)
				inside.Add(-1)

				mu.Lock()
				waits = append(waits, waited)
				mu.Unlock()
				return nil
			})
			switch {
			case err == nil:
			case errors.Is(err, contracts.ErrAcquisitionTimeout):
				timeouts.Add(1)
			default:
				failures.Add(1)
				log.WithError(err).Warn("Bench iteration failed")
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	return &benchResult{
		waits:    waits,
		timeouts: timeouts.Load(),
		failures: failures.Load(),
		overlaps: overlaps.Load(),
	}, nil
}

func runBench(cmd *cobra.Command, args []string) error {
	started := time.Now()
	result, err := bench(cmd.Context(), client, args[0], benchWorkers, benchIterations, benchWait, benchHold)
	if err != nil {
		return err
	}
	summary := stats.Summarize(result.waits)

	fmt.Printf("acquired=%d timeouts=%d failures=%d overlaps=%d elapsed=%s\n",
		summary.Count, result.timeouts, result.failures, result.overlaps, time.Since(started).Round(time.Millisecond))
	fmt.Printf("wait min=%s avg=%s max=%s stddev=%s p99=%s\n",
		summary.Min, summary.Avg, summary.Max, summary.StdDev, summary.P99)

	if result.overlaps > 0 {
		return fmt.Errorf("mutual exclusion violated %d times", result.overlaps)
	}
	return nil
}
