package locker

import (
	"context"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	log "github.com/sirupsen/logrus"
)

// renewer extends a redsync mutex every interval until stopped or until the
// lease can no longer be extended.
type renewer struct {
	mutex    *redsync.Mutex
	interval time.Duration

	lock     sync.Mutex
	cancel   cancelFn
	stopped  bool
	renewals int
}

func newRenewer(mutex *redsync.Mutex, interval time.Duration) *renewer {
	return &renewer{mutex: mutex, interval: interval}
}

func (r *renewer) start() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.cancel = runAfter(r.interval, r.renew)
}

func (r *renewer) renew() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.cancel = nil
	if r.stopped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	extended, err := r.mutex.ExtendContext(ctx)
	if err != nil && time.Now().Before(r.mutex.Until()) {
		// Still inside the current lease, try again on the next tick.
		log.WithError(err).WithField("lockKey", r.mutex.Name()).Warn("Lease renewal failed, retrying")
		r.cancel = runAfter(r.interval, r.renew)
		return
	}
	if err != nil || !extended {
		log.WithError(err).WithField("lockKey", r.mutex.Name()).Error("Lease lost, lock is no longer exclusive")
		return
	}

	r.renewals++
	r.cancel = runAfter(r.interval, r.renew)
}

func (r *renewer) stop() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.stopped = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *renewer) count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.renewals
}
