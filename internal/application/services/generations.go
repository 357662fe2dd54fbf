package services

import "sync"

// Generations hands out request tickets per caller scope so that a slow,
// superseded request can tell its result must be discarded.
type Generations struct {
	mu      sync.Mutex
	next    uint64
	current map[string]uint64
}

// NewGenerations creates an empty generation tracker
func NewGenerations() *Generations {
	return &Generations{current: make(map[string]uint64)}
}

// Begin issues a new ticket for scope, superseding earlier ones. An empty
// scope opts out of the guard.
func (g *Generations) Begin(scope string) uint64 {
	if scope == "" {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	g.current[scope] = g.next
	return g.next
}

// IsLatest reports whether gen is still the newest ticket for scope
func (g *Generations) IsLatest(scope string, gen uint64) bool {
	if scope == "" {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current[scope] == gen
}

// End releases scope if gen is still its newest ticket. Tickets are unique
// across scopes, so a released scope never reissues an old number.
func (g *Generations) End(scope string, gen uint64) {
	if scope == "" {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current[scope] == gen {
		delete(g.current, scope)
	}
}
