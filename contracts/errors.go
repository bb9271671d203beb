package contracts

type LockError string

const (
	// ErrAcquisitionTimeout is returned when the wait budget runs out before the lock is taken.
	ErrAcquisitionTimeout LockError = "lock acquisition timed out"
	ErrStoreUnavailable   LockError = "lock store unavailable"
	// ErrIllegalLockState means Unlock was called by a caller that does not hold the lock.
	ErrIllegalLockState LockError = "illegal lock state"
	ErrInterruptedWait  LockError = "lock wait interrupted"
	ErrNoOwner          LockError = "context carries no lock owner"
	// ErrLeaseExpired is returned by a release that found the key gone or owned by someone else.
	ErrLeaseExpired LockError = "lock lease expired before release"
)

func (e LockError) Error() string { return string(e) }
