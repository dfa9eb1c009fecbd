package checkout

import (
	"context"
	"time"

	pkgerrors "github.com/merchstorehq/merchstore-backend/pkg/errors"
	"github.com/merchstorehq/merchstore-backend/pkg/redis"
)

// The lock TTL bounds how long a crashed commit can keep a session frozen.
const processingLockTTL = 10 * time.Minute

// ProcessingLock is the per-session busy flag set while a commit runs. It
// blocks cart mutation and resubmission from the same session; it does not
// reserve stock against other sessions.
type ProcessingLock struct {
	client *redis.Client
}

// NewProcessingLock builds the lock on the shared Redis client.
func NewProcessingLock(client *redis.Client) *ProcessingLock {
	return &ProcessingLock{client: client}
}

// Acquire sets the busy flag; false means a commit is already in flight.
func (l *ProcessingLock) Acquire(ctx context.Context, sessionID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.client.ProcessingLockKey(sessionID), "1", processingLockTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring processing lock")
	}
	return ok, nil
}

// Release clears the busy flag.
func (l *ProcessingLock) Release(ctx context.Context, sessionID string) error {
	if err := l.client.Del(ctx, l.client.ProcessingLockKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "releasing processing lock")
	}
	return nil
}

// IsProcessing reports whether the busy flag is set.
func (l *ProcessingLock) IsProcessing(ctx context.Context, sessionID string) (bool, error) {
	_, err := l.client.Get(ctx, l.client.ProcessingLockKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading processing lock")
	}
	return true, nil
}
