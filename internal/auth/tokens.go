package auth

import "sync"

// Tokens wraps a Store with change notification. It is the one object both
// the API client (which clears on 401) and the auth context share, so every
// token mutation fans out to subscribers no matter who caused it.
type Tokens struct {
	mu    sync.Mutex
	store Store
	subs  []func()
}

// NewTokens wraps store.
func NewTokens(store Store) *Tokens {
	return &Tokens{store: store}
}

// Subscribe registers fn to run after every token change. Subscriptions
// cannot be removed; they live for the process.
func (t *Tokens) Subscribe(fn func()) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

// Token returns the held token, or "".
func (t *Tokens) Token() string {
	return t.store.Token()
}

// SetToken stores a new token and notifies subscribers.
func (t *Tokens) SetToken(token string) error {
	if err := t.store.SetToken(token); err != nil {
		return err
	}
	t.notify()
	return nil
}

// Clear drops the held token and notifies subscribers.
func (t *Tokens) Clear() error {
	if err := t.store.Clear(); err != nil {
		return err
	}
	t.notify()
	return nil
}

func (t *Tokens) notify() {
	t.mu.Lock()
	subs := make([]func(), len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
