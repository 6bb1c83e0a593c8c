// Package watchdog ends an authenticated session after a period without user
// input. It runs independently of the request pipeline: in-flight requests do
// not count as activity.
package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dmitrijs2005/gridconsole/internal/logging"
)

const DefaultIdleTimeout = 30 * time.Minute

// Signal is a kind of user input.
type Signal int

const (
	PointerMove Signal = iota + 1
	KeyPress
	Click
	Scroll
	Touch
)

func (s Signal) valid() bool {
	return s >= PointerMove && s <= Touch
}

// Source reports authentication transitions, see credentials.Store.
type Source interface {
	IsAuthenticated() bool
	Subscribe(fn func(authenticated bool)) func()
}

type Watchdog struct {
	mu     sync.Mutex
	clock  clock.Clock
	idle   time.Duration
	onIdle func()
	log    logging.Logger

	active bool
	timer  *clock.Timer
	// gen identifies the armed timer; a callback carrying an older value lost
	// a race with Observe or Deactivate and must do nothing.
	gen    uint64
	unbind func()
}

func New(clk clock.Clock, idle time.Duration, onIdle func(), log logging.Logger) *Watchdog {
	if clk == nil {
		clk = clock.New()
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Watchdog{
		clock:  clk,
		idle:   idle,
		onIdle: onIdle,
		log:    log.With("module", "watchdog"),
	}
}

// Bind follows src: the watchdog runs exactly while src is authenticated.
func (w *Watchdog) Bind(src Source) {
	unbind := src.Subscribe(func(authenticated bool) {
		if authenticated {
			w.Activate()
		} else {
			w.Deactivate()
		}
	})

	w.mu.Lock()
	prev := w.unbind
	w.unbind = unbind
	w.mu.Unlock()
	if prev != nil {
		prev()
	}

	if src.IsAuthenticated() {
		w.Activate()
	}
}

// Activate arms the idle timer. It is a no-op when already active.
func (w *Watchdog) Activate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active {
		return
	}
	w.active = true
	w.armLocked()
}

func (w *Watchdog) Deactivate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = false
	w.disarmLocked()
}

// Observe records user input and restarts the idle period. Unknown signals
// and input while inactive are ignored.
func (w *Watchdog) Observe(sig Signal) {
	if !sig.valid() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return
	}
	w.armLocked()
}

func (w *Watchdog) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Close deactivates and stops following the bound source.
func (w *Watchdog) Close() {
	w.mu.Lock()
	w.active = false
	w.disarmLocked()
	unbind := w.unbind
	w.unbind = nil
	w.mu.Unlock()

	if unbind != nil {
		unbind()
	}
}

func (w *Watchdog) armLocked() {
	w.disarmLocked()
	gen := w.gen
	w.timer = w.clock.AfterFunc(w.idle, func() { w.fire(gen) })
}

func (w *Watchdog) disarmLocked() {
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watchdog) fire(gen uint64) {
	w.mu.Lock()
	if !w.active || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.active = false
	w.timer = nil
	w.mu.Unlock()

	w.log.Info(context.Background(), "idle timeout reached, ending session", "idle", w.idle.String())
	if w.onIdle != nil {
		w.onIdle()
	}
}
