package session

import (
	"context"
	"errors"
	"sync"

	"github.com/trezcool/maintenance/core/user"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeAccount struct {
	id  string
	pwd string
}

type fakeVerifier struct {
	mu           sync.Mutex
	accounts     map[string]fakeAccount // {email: account}
	signOutErr   error
	signOuts     int
	subscribers  map[int]func(string)
	nextSub      int
	unsubscribed int
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		accounts:    make(map[string]fakeAccount),
		subscribers: make(map[int]func(string)),
	}
}

func (v *fakeVerifier) Verify(_ context.Context, email, pwd string) (string, error) {
	if email == "" || pwd == "" {
		return "", NewAuthenticationError(InvalidCredentials)
	}
	acc, ok := v.accounts[email]
	if !ok {
		return "", NewAuthenticationError(UserNotFound)
	}
	if acc.pwd != pwd {
		return "", NewAuthenticationError(WrongPassword)
	}
	return acc.id, nil
}

func (v *fakeVerifier) SignOut(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signOuts++
	return v.signOutErr
}

func (v *fakeVerifier) Subscribe(onChange func(string)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextSub
	v.nextSub++
	v.subscribers[id] = onChange
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.subscribers, id)
		v.unsubscribed++
	}
}

// emit notifies every subscriber synchronously.
func (v *fakeVerifier) emit(principalID string) {
	v.mu.Lock()
	subs := make([]func(string), 0, len(v.subscribers))
	for _, fn := range v.subscribers {
		subs = append(subs, fn)
	}
	v.mu.Unlock()
	for _, fn := range subs {
		fn(principalID)
	}
}

type fakeDirectory struct {
	profiles map[string]Profile
	err      error
	lookups  int
}

func newFakeDirectory(profiles ...Profile) *fakeDirectory {
	d := &fakeDirectory{profiles: make(map[string]Profile)}
	for _, p := range profiles {
		d.profiles[p.PrincipalID] = p
	}
	return d
}

func (d *fakeDirectory) FindProfileByPrincipalID(_ context.Context, id string) (Profile, error) {
	d.lookups++
	if d.err != nil {
		return Profile{}, d.err
	}
	p, ok := d.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

var errUnreachable = errors.New("directory unreachable")

func principal(id string, role user.Role) *Principal {
	return &Principal{ID: id, Role: role}
}
