// Package nav is the console's navigation target. The session core never
// renders anything itself; when it decides the user has to sign in again it
// asks a Navigator to switch to the login prompt.
package nav

import "sync"

// Reasons passed to ToLogin.
const (
	ReasonRefreshFailed = "refresh_failed"
	ReasonUnauthorized  = "unauthorized"
	ReasonLoggedOut     = "logged_out"
	ReasonIdle          = "idle_timeout"
)

type Navigator interface {
	ToLogin(reason string)
}

// Func adapts a plain function to Navigator.
type Func func(reason string)

func (f Func) ToLogin(reason string) { f(reason) }

// Recorder remembers every navigation. Used by tests and as a no-op
// navigator for non-interactive commands.
type Recorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *Recorder) ToLogin(reason string) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
}

// Reasons returns a copy of the recorded reasons in call order.
func (r *Recorder) Reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}
