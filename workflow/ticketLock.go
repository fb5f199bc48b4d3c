package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// AcquirePartLock serializes ledger writes per part across instances using
// MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the ledger transaction.
func AcquirePartLock(tx *gorm.DB, partId int) error {
	lockName := fmt.Sprintf("part:%d", partId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire ledger lock for part_id=%d", partId)
	}
	return nil
}

func ReleasePartLock(tx *gorm.DB, partId int) {
	lockName := fmt.Sprintf("part:%d", partId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// acquireTicketLock takes a best-effort redis lock around a ticket mutation.
// Reliability must not depend on Redis: correctness comes from the version
// compare-and-swap on the ticket row and the durable idempotency key; the
// redis lock only thins out doomed concurrent submissions early.
func acquireTicketLock(ctx context.Context, ticketId int) *redislock.Lock {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}
	lock, err := locker.Obtain(ctx, fmt.Sprintf("ticket:%d", ticketId), 30*time.Second, nil)
	if err != nil {
		return nil
	}
	return lock
}

func releaseTicketLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}
