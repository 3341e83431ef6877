package credentials

import (
	"sync"
	"sync/atomic"
)

// Broadcaster fans session changes out to subscribers. Emit delivers
// synchronously, one event at a time, holding the dispatch lock for the
// duration; a callback that calls back into its store will deadlock.
type Broadcaster struct {
	dispatchMu sync.Mutex
	mu         sync.RWMutex
	nextID     atomic.Uint64
	callbacks  map[uint64]Callback
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Subscribe registers callback until the returned subscription is cancelled
func (b *Broadcaster) Subscribe(callback Callback) Subscription {
	id := b.nextID.Add(1)

	b.mu.Lock()
	if b.callbacks == nil {
		b.callbacks = make(map[uint64]Callback)
	}
	b.callbacks[id] = callback
	b.mu.Unlock()

	return &subscription{cancel: func() {
		b.mu.Lock()
		delete(b.callbacks, id)
		b.mu.Unlock()
	}}
}

// Emit delivers event to every current subscriber, each with its own copy of session
func (b *Broadcaster) Emit(event Event, session *Session) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.mu.RLock()
	callbacks := make([]Callback, 0, len(b.callbacks))
	for _, cb := range b.callbacks {
		callbacks = append(callbacks, cb)
	}
	b.mu.RUnlock()

	for _, cb := range callbacks {
		cb(event, session.Clone())
	}
}

// Subscribers returns the number of active subscriptions
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.callbacks)
}
