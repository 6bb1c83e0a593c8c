// Package refresh makes sure at most one token refresh is in flight per
// session, no matter how many requests discover an expired token at once.
package refresh

import "sync"

// Outcome is what a waiter receives when the in-flight refresh settles.
type Outcome struct {
	Token string
	Err   error
}

// Gate is the refresh-in-progress flag together with the queue of callers
// waiting on it. Both live under one mutex so the queue is drained in the
// same critical section that clears the flag: nobody can enqueue behind a
// refresh that has already settled.
type Gate struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan Outcome
	// navigate is raised by waiters that expect a failed refresh to end at
	// the login prompt.
	navigate bool
}

// TryBegin marks a refresh as in flight. It returns false if one already is.
func (g *Gate) TryBegin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return false
	}
	g.inFlight = true
	g.navigate = false
	return true
}

// Enqueue registers a waiter on the in-flight refresh. ok is false when no
// refresh is in flight; the caller should look at the current token again.
func (g *Gate) Enqueue() (ch <-chan Outcome, ok bool) {
	return g.EnqueueFor(false)
}

// EnqueueFor is Enqueue for a waiter that may ask for navigation on failure.
func (g *Gate) EnqueueFor(navigate bool) (ch <-chan Outcome, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inFlight {
		return nil, false
	}
	c := make(chan Outcome, 1)
	g.waiters = append(g.waiters, c)
	g.navigate = g.navigate || navigate
	return c, true
}

// SettleAll hands o to every waiter, empties the queue and clears the flag.
// Waiter channels are buffered, so a waiter that gave up never blocks it.
// It returns the number of waiters released.
func (g *Gate) SettleAll(o Outcome) int {
	n, _ := g.Settle(o)
	return n
}

// Settle is SettleAll that also reports whether any released waiter asked
// for navigation.
func (g *Gate) Settle(o Outcome) (released int, navigate bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	released = len(g.waiters)
	for _, c := range g.waiters {
		c <- o
	}
	navigate = g.navigate
	g.waiters = nil
	g.inFlight = false
	g.navigate = false
	return released, navigate
}

func (g *Gate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}
