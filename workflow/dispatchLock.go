package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/venue_backend/config"
	"github.com/bsm/redislock"
)

// Two concurrent bulk dispatches for one venue could double-allocate the
// same lots, so dispatch is serialized per venue via redislock. The TTL
// outlives any realistic run; the lock is released as soon as the run ends.
const dispatchLockTTL = 5 * time.Minute

var ErrorDispatchInProgress = fmt.Errorf("another bulk dispatch is already running for this venue")

// AcquireDispatchLock takes the per-venue dispatch lock. Without a Redis
// connection (local tooling) it degrades to unguarded execution, matching
// the nil-safe redis helpers in config.
func AcquireDispatchLock(ctx context.Context, venueId string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, "bulk-dispatch:"+venueId, dispatchLockTTL, nil)
	if err == redislock.ErrNotObtained {
		return nil, ErrorDispatchInProgress
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func ReleaseDispatchLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}
