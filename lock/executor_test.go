package lock

import (
	"context"
	"errors"
	"time"

	"github.com/soroosh-tanzadeh/distlock/contracts"
)

func (t *LockerTestSuite) Test_RunExclusive_ShouldReleaseAfterBody() {
	locker := t.newLocker(t.fastConfig())
	called := false

	err := locker.RunExclusive(context.Background(), "res", time.Second, func(ctx context.Context) error {
		called = true
		t.True(t.redisServer.Exists("lock:res"))
		_, ok := contracts.OwnerFromContext(ctx)
		t.True(ok)
		return nil
	})

	t.NoError(err)
	t.True(called)
	t.False(t.redisServer.Exists("lock:res"))
}

func (t *LockerTestSuite) Test_RunExclusive_ShouldReleaseOnBodyError() {
	locker := t.newLocker(t.fastConfig())
	expectedError := errors.New("body failed")

	err := locker.RunExclusive(context.Background(), "res", time.Second, func(ctx context.Context) error {
		return expectedError
	})

	t.ErrorIs(err, expectedError)
	t.False(t.redisServer.Exists("lock:res"))
}

func (t *LockerTestSuite) Test_RunExclusive_ShouldReleaseOnPanic() {
	locker := t.newLocker(t.fastConfig())

	t.PanicsWithValue("boom", func() {
		_ = locker.RunExclusive(context.Background(), "res", time.Second, func(ctx context.Context) error {
			panic("boom")
		})
	})
	t.False(t.redisServer.Exists("lock:res"))
}

func (t *LockerTestSuite) Test_RunExclusive_ShouldReenterOnNestedCall() {
	locker := t.newLocker(t.fastConfig())
	depth := 0

	err := locker.RunExclusive(context.Background(), "res", time.Second, func(ctx context.Context) error {
		depth++
		return locker.RunExclusive(ctx, "res", 0, func(ctx context.Context) error {
			depth++
			t.Equal(2, locker.NewReentrantLock("res").HoldCount(ctx))
			return nil
		})
	})

	t.NoError(err)
	t.Equal(2, depth)
	t.False(t.redisServer.Exists("lock:res"))
}

func (t *LockerTestSuite) Test_RunExclusive_ShouldReportTimeout() {
	locker := t.newLocker(t.fastConfig())
	holder := contracts.WithOwner(context.Background())
	acquired, _ := locker.Lock(holder, "res", 0)
	t.Require().True(acquired)

	err := locker.RunExclusive(context.Background(), "res", 30*time.Millisecond, func(ctx context.Context) error {
		t.Fail("body must not run")
		return nil
	})

	t.ErrorIs(err, contracts.ErrAcquisitionTimeout)
	t.True(t.redisServer.Exists("lock:res"))
	t.NoError(locker.Unlock(holder, "res"))
}

func (t *LockerTestSuite) Test_RunExclusive_ShouldReportInterruptedWait() {
	locker := t.newLocker(t.fastConfig())
	holder := contracts.WithOwner(context.Background())
	acquired, _ := locker.Lock(holder, "res", 0)
	t.Require().True(acquired)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := locker.RunExclusive(ctx, "res", time.Minute, func(ctx context.Context) error {
		t.Fail("body must not run")
		return nil
	})

	t.ErrorIs(err, contracts.ErrInterruptedWait)
	t.ErrorIs(err, context.DeadlineExceeded)
	t.False(errors.Is(err, contracts.ErrAcquisitionTimeout))
	t.NoError(locker.Unlock(holder, "res"))
}

func (t *LockerTestSuite) Test_RunExclusive_ShouldJoinReleaseError() {
	cfg := t.fastConfig()
	cfg.Lease = time.Second
	locker := t.newLocker(cfg)

	err := locker.RunExclusive(context.Background(), "res", time.Second, func(ctx context.Context) error {
		t.redisServer.FastForward(2 * time.Second)
		return nil
	})

	t.ErrorIs(err, contracts.ErrLeaseExpired)
}

func (t *LockerTestSuite) Test_Execute_ShouldReturnBodyResult() {
	locker := t.newLocker(t.fastConfig())

	result, err := Execute(context.Background(), locker, "res", time.Second, Callback[int]{
		OnLocked: func(ctx context.Context) (int, error) {
			return 42, nil
		},
	})

	t.NoError(err)
	t.Equal(42, result)
}

func (t *LockerTestSuite) Test_Execute_ShouldCallOnTimeout() {
	locker := t.newLocker(t.fastConfig())
	holder := contracts.WithOwner(context.Background())
	acquired, _ := locker.Lock(holder, "res", 0)
	t.Require().True(acquired)

	result, err := Execute(context.Background(), locker, "res", 0, Callback[string]{
		OnLocked: func(ctx context.Context) (string, error) {
			return "locked", nil
		},
		OnTimeout: func(ctx context.Context) (string, error) {
			return "timeout", nil
		},
	})

	t.NoError(err)
	t.Equal("timeout", result)
	t.NoError(locker.Unlock(holder, "res"))
}

func (t *LockerTestSuite) Test_RunExclusive_ShouldApplyLeaseFromContext() {
	locker := t.newLocker(t.fastConfig())
	ctx := contracts.WithLease(context.Background(), 5*time.Second)

	err := locker.RunExclusive(ctx, "res", time.Second, func(ctx context.Context) error {
		t.Equal(5*time.Second, t.redisServer.TTL("lock:res"))

		// Re-entering keeps the lease of the first acquisition.
		return locker.RunExclusive(contracts.WithLease(ctx, time.Minute), "res", 0, func(ctx context.Context) error {
			t.Equal(5*time.Second, t.redisServer.TTL("lock:res"))
			return nil
		})
	})
	t.NoError(err)

	err = locker.RunExclusive(context.Background(), "res", time.Second, func(ctx context.Context) error {
		t.Equal(locker.Config().Lease, t.redisServer.TTL("lock:res"))
		return nil
	})
	t.NoError(err)
}
