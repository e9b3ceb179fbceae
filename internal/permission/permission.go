// Package permission implements the one-time confirmation a user must give
// before the scan workflow becomes usable.
package permission

import (
	"sync"

	"github.com/raysh454/vulnx/internal/navigation"
)

// Gate is a per-session boolean that starts closed and, once opened, stays
// open for the life of the session.
type Gate struct {
	mu        sync.RWMutex
	confirmed bool
}

// New returns a closed gate.
func New() *Gate {
	return &Gate{}
}

// Confirm opens the gate. It returns true only on the call that changed the
// flag; later calls are no-ops.
func (g *Gate) Confirm() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.confirmed {
		return false
	}
	g.confirmed = true
	return true
}

// Decline leaves the flag untouched and sends the user back home.
func (g *Gate) Decline(nav *navigation.Navigator) {
	if nav != nil {
		nav.Navigate(navigation.PageHome)
	}
}

// Confirmed reports whether the user has confirmed.
func (g *Gate) Confirmed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.confirmed
}
