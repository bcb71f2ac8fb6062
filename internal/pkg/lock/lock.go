// Package lock serializes work on a shared key, such as scheduling sessions of one course.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yigit/eduschedule/internal/pkg/logger"
)

// ErrNotAcquired is returned when the lock could not be taken before the context ended
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. It is safe to call once.
type Unlock func(ctx context.Context) error

// Locker hands out mutually exclusive locks by key
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// CourseKey is the lock key guarding session creation for a course
func CourseKey(courseID int64) string {
	return fmt.Sprintf("course:%d", courseID)
}

// WithLock runs fn while holding key. wait bounds only the acquisition (zero waits on ctx alone).
// The lock is released even when fn fails. Once fn has succeeded its work is done, so a failed
// release is logged and the call still succeeds; the release error is only returned when fn failed too.
func WithLock(ctx context.Context, l Locker, key string, wait time.Duration, fn func(ctx context.Context) error) (err error) {
	acquireCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	unlock, err := l.Lock(acquireCtx, key)
	if err != nil {
		return err
	}
	defer func() {
		// Release on a context that outlives a cancelled request
		uerr := unlock(context.WithoutCancel(ctx))
		if uerr == nil {
			return
		}
		if err == nil {
			logger.Warn().Err(uerr).Str("key", key).Msg("Lock release failed after the work completed")
			return
		}
		err = fmt.Errorf("%w (release lock %s: %v)", err, key, uerr)
	}()
	return fn(ctx)
}
