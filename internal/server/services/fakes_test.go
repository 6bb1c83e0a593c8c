package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/dmitrijs2005/gridconsole/internal/dbx"
	"github.com/dmitrijs2005/gridconsole/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/gridconsole/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/gridconsole/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	getErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) put(u *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
}

func (f *fakeUsersRepo) get(id string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.put(u)
	return u, nil
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) update(id string, fn func(u *models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

func (f *fakeUsersRepo) IncrementFailedAttempts(_ context.Context, id string, now time.Time) (int, error) {
	var n int
	err := f.update(id, func(u *models.User) {
		u.FailedLoginAttempts++
		n = u.FailedLoginAttempts
	})
	return n, err
}

func (f *fakeUsersRepo) Lock(_ context.Context, id string, until time.Time, now time.Time) error {
	return f.update(id, func(u *models.User) {
		u.IsLocked = true
		u.LockedUntil = &until
	})
}

func (f *fakeUsersRepo) ResetFailedAttempts(_ context.Context, id string, now time.Time) error {
	return f.update(id, func(u *models.User) {
		u.FailedLoginAttempts = 0
		u.IsLocked = false
		u.LockedUntil = nil
	})
}

func (f *fakeUsersRepo) UpdateLastLogin(_ context.Context, id string, now time.Time) error {
	return f.update(id, func(u *models.User) { u.LastLoginAt = &now })
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id string, hash string, now time.Time) error {
	return f.update(id, func(u *models.User) { u.PasswordHash = hash })
}

type fakeRefreshRepo struct {
	mu      sync.Mutex
	byToken map[string]*models.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byToken: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshRepo) Create(_ context.Context, t *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byToken[t.Token] = t
	return nil
}

func (f *fakeRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeRefreshRepo) Delete(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byToken[token]
	delete(f.byToken, token)
	return ok, nil
}

func (f *fakeRefreshRepo) has(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byToken[token]
	return ok
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository { return m.r }

type recordingObserver struct {
	mu       sync.Mutex
	logins   []string
	refreshs []string
}

func (o *recordingObserver) LoginAttempt(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logins = append(o.logins, outcome)
}

func (o *recordingObserver) TokenRefresh(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshs = append(o.refreshs, outcome)
}
