package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ridemate/internal/domain"
)

// TripLocker serializes booking and cancellation on one trip. Both
// operations must acquire the same lock so the check-then-reserve
// sequence never interleaves.
type TripLocker interface {
	Lock(ctx context.Context, tripID int64) (unlock func(), err error)
}

// RedisTripLocker implements TripLocker with SET NX plus a TTL so a
// crashed holder cannot wedge the trip forever. Unlock releases only
// its own token.
type RedisTripLocker struct {
	Client     *redis.Client
	TTL        time.Duration
	RetryDelay time.Duration
	MaxWait    time.Duration
}

const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`

func (l RedisTripLocker) Lock(ctx context.Context, tripID int64) (func(), error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	retry := l.RetryDelay
	if retry <= 0 {
		retry = 25 * time.Millisecond
	}
	maxWait := l.MaxWait
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}

	key := fmt.Sprintf("trip_lock:%d", tripID)
	token := uuid.NewString()
	deadline := time.Now().Add(maxWait)

	for {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, domain.InternalError{Msg: "trip lock unavailable", Err: err}
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, domain.ConflictError{Resource: "trip", Msg: "busy, try again"}
		}
		select {
		case <-ctx.Done():
			return nil, domain.InternalError{Msg: "trip lock cancelled", Err: ctx.Err()}
		case <-time.After(retry):
		}
	}

	unlock := func() {
		// Detach from the request context so the lock is released even
		// when the request has already been cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Client.Eval(releaseCtx, unlockScript, []string{key}, token).Err()
	}
	return unlock, nil
}
