package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when another holder owns the lock
	ErrLockNotAcquired = errors.New("redis: lock held by another owner")
	// ErrLockLost is returned by Unlock when the lock expired or changed hands
	ErrLockLost = errors.New("redis: lock expired or token mismatch")
)

// IsNil reports a missing key
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
