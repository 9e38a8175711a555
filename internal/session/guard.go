package session

import "sync"

// Keyring holds API credentials in memory only, keyed by session ID.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string]string)}
}

func (k *Keyring) Set(id, key string) {
	k.mu.Lock()
	k.keys[id] = key
	k.mu.Unlock()
}

func (k *Keyring) Get(id string) (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.keys[id]
	return v, ok && v != ""
}

func (k *Keyring) Delete(id string) {
	k.mu.Lock()
	delete(k.keys, id)
	k.mu.Unlock()
}

// Guard allows one in-flight action per session.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// TryAcquire returns ErrBusy when an action is already running for id. The
// returned release func must be called exactly once.
func (g *Guard) TryAcquire(id string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[id]; ok {
		return nil, ErrBusy
	}
	g.active[id] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, id)
			g.mu.Unlock()
		})
	}, nil
}

func (g *Guard) Busy(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.active[id]
	return ok
}
