// Package credentials holds the console's current access token and refresh
// credential. Memory is authoritative; every change is mirrored to the
// metadata table so a restarted console resumes the session.
package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gridconsole/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/dmitrijs2005/gridconsole/internal/logging"
)

// Store is safe for concurrent use. The generation counter changes on every
// write, which lets a writer that started from an older snapshot detect that
// the session moved on underneath it (see SetIfGeneration).
type Store struct {
	mu      sync.RWMutex
	repo    metadata.Repository
	log     logging.Logger
	access  string
	refresh string
	gen     uint64

	subs   map[int]func(authenticated bool)
	nextID int

	// notifyMu serializes delivery. notified is the state subscribers were
	// last told about.
	notifyMu sync.Mutex
	notified bool
}

func NewStore(repo metadata.Repository, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop{}
	}
	return &Store{
		repo: repo,
		log:  log.With("module", "credentials"),
		subs: make(map[int]func(bool)),
	}
}

// Load reads persisted credentials into memory.
func (s *Store) Load(ctx context.Context) error {
	access, err := s.repo.Get(ctx, common.AccessTokenKey)
	if err != nil {
		return fmt.Errorf("load access token: %w", err)
	}
	refresh, err := s.repo.Get(ctx, common.RefreshTokenKey)
	if err != nil {
		return fmt.Errorf("load refresh token: %w", err)
	}

	s.mu.Lock()
	was := s.access != ""
	s.access, s.refresh = string(access), string(refresh)
	s.gen++
	changed := was != (s.access != "")
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Snapshot returns the refresh credential together with the generation it
// belongs to.
func (s *Store) Snapshot() (refresh string, gen uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, s.gen
}

// Set replaces both values unconditionally (last write wins).
func (s *Store) Set(ctx context.Context, access, refresh string) {
	s.mu.Lock()
	changed := s.setLocked(ctx, access, refresh)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// SetIfGeneration stores the pair only if nothing was written since gen was
// observed. It reports whether the pair was stored.
func (s *Store) SetIfGeneration(ctx context.Context, gen uint64, access, refresh string) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	changed := s.setLocked(ctx, access, refresh)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return true
}

// Clear removes both values from memory and storage. Clearing an empty
// store is harmless.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	was := s.access != ""
	s.access, s.refresh = "", ""
	s.gen++
	if err := s.repo.Delete(ctx, common.AccessTokenKey, common.RefreshTokenKey); err != nil {
		s.log.Warn(ctx, "failed to delete persisted credentials", "error", err)
	}
	s.mu.Unlock()
	if was {
		s.notify()
	}
}

// Subscribe registers fn for authentication transitions (token appears or
// disappears). fn runs outside the store's lock, one call at a time, and is
// given the state current at delivery, so racing writers can collapse or
// drop intermediate transitions but the last call always matches the store.
// fn must not write to the store. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(authenticated bool)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) setLocked(ctx context.Context, access, refresh string) (changed bool) {
	was := s.access != ""
	s.access, s.refresh = access, refresh
	s.gen++

	values := map[string][]byte{
		common.AccessTokenKey:  []byte(access),
		common.RefreshTokenKey: []byte(refresh),
	}
	if err := s.repo.SetMany(ctx, values); err != nil {
		s.log.Warn(ctx, "failed to persist credentials", "error", err)
	}
	return was != (access != "")
}

// notify runs after every transition, once the state lock is released.
func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	now := s.access != ""
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	if now == s.notified {
		return
	}
	s.notified = now
	for _, fn := range fns {
		fn(now)
	}
}
