package service

import (
	"context"
	"sync"
	"time"
)

// IdentityEventKind names an identity state change.
type IdentityEventKind string

const (
	EventSignedIn       IdentityEventKind = "signed_in"
	EventSignedOut      IdentityEventKind = "signed_out"
	EventTokenRefreshed IdentityEventKind = "token_refreshed"
)

// IdentityEvent is published after a sign-in, sign-out or token refresh.
type IdentityEvent struct {
	Kind   IdentityEventKind
	UserID string
	Email  string
	At     time.Time
}

// IdentityListener receives identity events. It runs on the publishing
// goroutine and must not block.
type IdentityListener func(ctx context.Context, e IdentityEvent)

// Notifier fans identity events out to subscribers.
type Notifier struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]IdentityListener
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]IdentityListener)}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn IdentityListener) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers e to every current subscriber.
func (n *Notifier) Publish(ctx context.Context, e IdentityEvent) {
	n.mu.RLock()
	listeners := make([]IdentityListener, 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, e)
	}
}
