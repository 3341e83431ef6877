package fakeuserrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-portal/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// Operation names used to inject failures.
const (
	OpFetchRole     = "fetch_role"
	OpFetchProfile  = "fetch_profile"
	OpInsertProfile = "insert_profile"
	OpInsertRole    = "insert_role"
	OpUpdateProfile = "update_profile"
)

type FakeUserRepo struct {
	roles    map[string]users.Role     // user id -> role
	profiles map[string]*users.Profile // user id -> profile
	failures map[string]error          // operation -> injected error
	hooks    map[string]func(userID string)
	calls    map[string]int
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		roles:    make(map[string]users.Role),
		profiles: make(map[string]*users.Profile),
		failures: make(map[string]error),
		hooks:    make(map[string]func(string)),
		calls:    make(map[string]int),
	}
}

// Fail makes every later call of op return err. A nil err clears the failure.
func (ur *FakeUserRepo) Fail(op string, err error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if err == nil {
		delete(ur.failures, op)
		return
	}
	ur.failures[op] = err
}

// OnCall runs hook at the start of every call of op, before the repo lock is taken.
// Tests use it to hold a lookup in flight.
func (ur *FakeUserRepo) OnCall(op string, hook func(userID string)) {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	ur.hooks[op] = hook
}

func (ur *FakeUserRepo) runHook(op, userID string) {
	ur.lock.RLock()
	hook := ur.hooks[op]
	ur.lock.RUnlock()
	if hook != nil {
		hook(userID)
	}
}

// Calls returns how many times op was invoked
func (ur *FakeUserRepo) Calls(op string) int {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return ur.calls[op]
}

// Seed stores a role and profile directly, bypassing failure injection.
func (ur *FakeUserRepo) Seed(userID string, role users.Role, profile *users.Profile) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if role != "" {
		ur.roles[userID] = role
	}
	if profile != nil {
		p := *profile
		p.UserID = userID
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		ur.profiles[userID] = &p
	}
}

func (ur *FakeUserRepo) enter(op string) error {
	ur.calls[op]++
	return ur.failures[op]
}

func (ur *FakeUserRepo) FetchRole(ctx context.Context, userID string) (users.Role, error) {
	ur.runHook(OpFetchRole, userID)
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if err := ur.enter(OpFetchRole); err != nil {
		return "", err
	}
	role, ok := ur.roles[userID]
	if !ok {
		return "", users.ErrNotFound
	}
	return role, nil
}

func (ur *FakeUserRepo) FetchProfile(ctx context.Context, userID string) (*users.Profile, error) {
	ur.runHook(OpFetchProfile, userID)
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if err := ur.enter(OpFetchProfile); err != nil {
		return nil, err
	}
	profile, ok := ur.profiles[userID]
	if !ok {
		return nil, users.ErrNotFound
	}
	p := *profile
	return &p, nil
}

func (ur *FakeUserRepo) InsertProfile(ctx context.Context, profile *users.Profile) error {
	ur.runHook(OpInsertProfile, profile.UserID)
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if err := ur.enter(OpInsertProfile); err != nil {
		return err
	}
	if _, exists := ur.profiles[profile.UserID]; exists {
		return errors.New("duplicate profile")
	}
	p := *profile
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	ur.profiles[profile.UserID] = &p
	return nil
}

func (ur *FakeUserRepo) InsertRole(ctx context.Context, userID string, role users.Role) error {
	ur.runHook(OpInsertRole, userID)
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if err := ur.enter(OpInsertRole); err != nil {
		return err
	}
	if _, exists := ur.roles[userID]; exists {
		return errors.New("duplicate role")
	}
	ur.roles[userID] = role
	return nil
}

func (ur *FakeUserRepo) UpdateProfile(ctx context.Context, userID string, update users.ProfileUpdate) error {
	ur.runHook(OpUpdateProfile, userID)
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if err := ur.enter(OpUpdateProfile); err != nil {
		return err
	}
	profile, ok := ur.profiles[userID]
	if !ok {
		return users.ErrNotFound
	}
	if update.FullName != nil {
		profile.FullName = *update.FullName
	}
	if update.Email != nil {
		profile.Email = *update.Email
	}
	if update.CompanyName != nil {
		profile.CompanyName = *update.CompanyName
	}
	if update.Country != nil {
		profile.Country = *update.Country
	}
	profile.UpdatedAt = time.Now()
	return nil
}
