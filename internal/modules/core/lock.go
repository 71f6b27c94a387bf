package core

import (
	"context"
	"sync"

	"github.com/eskrenkovic/mediator-go"
)

// KeyedMutex serializes work per key. Commands and the round task of the
// same game session share one lock, so concurrent mutations of the same
// roster or card pools never interleave. Sessions under different keys
// proceed independently.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entryLock)}
}

// Lock acquires the lock for key and returns the matching unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &entryLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Lockable marks a request that must be serialized against other requests
// carrying the same key.
type Lockable interface {
	LockKey() string
}

var _ mediator.PipelineBehavior = (*RequestLockingBehavior)(nil)

// RequestLockingBehavior holds the keyed lock for the duration of a handler
// invocation when the request implements Lockable.
type RequestLockingBehavior struct {
	Locks *KeyedMutex
}

func (b *RequestLockingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	lockable, ok := request.(Lockable)
	if !ok || lockable.LockKey() == "" {
		return next(ctx, request)
	}

	unlock := b.Locks.Lock(lockable.LockKey())
	defer unlock()

	return next(ctx, request)
}
