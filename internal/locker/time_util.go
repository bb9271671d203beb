package locker

import (
	"sync/atomic"
	"time"
)

type cancelFn func()

func runAfter(timeout time.Duration, fn func()) cancelFn {
	cancelCh := make(chan bool)
	canceled := atomic.Bool{}

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-cancelCh:
			return
		case <-timer.C:
			if canceled.Swap(true) {
				return
			}
			close(cancelCh)
			fn()
			return
		}
	}()

	return func() {
		if !canceled.Swap(true) {
			close(cancelCh)
		}
	}
}
