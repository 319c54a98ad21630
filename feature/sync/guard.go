package sync

import "sync"

// Guard is the process-wide re-entrancy guard for reconciliation. It serves
// two purposes: no two full passes may run concurrently, and push-to-remote
// calls triggered by local rank mutations must defer to an in-flight pull so
// a remote-to-local sync cannot feed back into redundant provider writes.
//
// The guard is deliberately an injected object rather than a package-level
// flag; it does not attempt distributed locking across processes.
type Guard struct {
	mu      sync.Mutex
	pulling bool
}

// NewGuard creates an idle guard.
func NewGuard() *Guard {
	return &Guard{}
}

// BeginPull marks a pull sync as in flight. It returns false if one is
// already running, in which case the caller must not start another pass.
func (g *Guard) BeginPull() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pulling {
		return false
	}
	g.pulling = true
	return true
}

// EndPull clears the in-flight marker. Callers pair it with BeginPull via
// defer so the guard is released on every exit path.
func (g *Guard) EndPull() {
	g.mu.Lock()
	g.pulling = false
	g.mu.Unlock()
}

// Pulling reports whether a pull sync is currently in flight.
func (g *Guard) Pulling() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pulling
}
