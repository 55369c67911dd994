package session

import (
	"context"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
)

// Store is the single authority on who is logged in and with what role.
// It starts loading and resolves once the verifier reports its initial state.
type Store struct {
	verifier  CredentialVerifier
	directory RoleDirectory
	logger    core.Logger

	opMu sync.Mutex // serializes Login & Logout

	mu          sync.RWMutex
	session     Session
	watchers    map[int]func(Session)
	nextWatcher int
	resolved    chan struct{}
	unsubscribe func()
	closed      bool
}

func NewStore(verifier CredentialVerifier, directory RoleDirectory, logger core.Logger) *Store {
	vala.BeginValidation().Validate(
		vala.IsNotNil(verifier, "verifier"),
		vala.IsNotNil(directory, "directory"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Store{
		verifier:  verifier,
		directory: directory,
		logger:    logger,
		session:   Session{Loading: true},
		watchers:  make(map[int]func(Session)),
		resolved:  make(chan struct{}),
	}
}

// Initialize subscribes to the verifier's authentication state changes.
// ctx bounds the directory lookups made by the subscription. Calling it again is a no-op.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session store closed")
	}
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return nil
	}
	s.unsubscribe = func() {} // mark as subscribed while Subscribe runs
	s.mu.Unlock()

	unsubscribe := s.verifier.Subscribe(func(principalID string) {
		s.onAuthStateChanged(ctx, principalID)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		unsubscribe()
		return errors.New("session store closed")
	}
	s.unsubscribe = unsubscribe
	return nil
}

// Close releases the verifier subscription. It is safe to call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.closed = true
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// onAuthStateChanged resolves the reported principal. Directory failures degrade to anonymous.
func (s *Store) onAuthStateChanged(ctx context.Context, principalID string) {
	if principalID == "" {
		s.set(Session{})
		return
	}

	profile, err := s.directory.FindProfileByPrincipalID(ctx, principalID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			s.logger.Warn("resolving auth state: directory lookup failed", err, map[string]interface{}{"principal_id": principalID})
		} else {
			s.logger.Warn("resolving auth state: no profile", map[string]interface{}{"principal_id": principalID})
		}
		s.set(Session{})
		return
	}
	s.set(Session{Principal: &Principal{ID: principalID, Role: profile.Role}})
}

// Login verifies the credentials, then looks the principal up in the directory.
// The session is only changed on success.
func (s *Store) Login(ctx context.Context, email, pwd string) (Principal, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	principalID, err := s.verifier.Verify(ctx, email, pwd)
	if err != nil {
		return Principal{}, err
	}

	profile, err := s.directory.FindProfileByPrincipalID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return Principal{}, ErrProfileNotFound
		}
		var dErr *DirectoryError
		if errors.As(err, &dErr) {
			return Principal{}, dErr
		}
		return Principal{}, &DirectoryError{Err: err}
	}

	p := Principal{ID: principalID, Role: profile.Role}
	s.set(Session{Principal: &p})
	return p, nil
}

// Logout signs out, then clears the session whatever the verifier answered.
// The sign-out error is returned for reporting only.
func (s *Store) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	err := s.verifier.SignOut(ctx)
	s.set(Session{})
	if err != nil {
		return errors.Wrap(err, "signing out")
	}
	return nil
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.copy()
}

// Watch registers fn, called with every new session value.
func (s *Store) Watch(fn func(Session)) (unwatch func()) {
	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, id)
			s.mu.Unlock()
		})
	}
}

// Wait blocks until the session is no longer loading.
func (s *Store) Wait(ctx context.Context) (Session, error) {
	select {
	case <-s.resolved:
		return s.Session(), nil
	case <-ctx.Done():
		return s.Session(), ctx.Err()
	}
}

// set stores next and notifies watchers when the value actually changed.
func (s *Store) set(next Session) {
	s.mu.Lock()
	if s.session.Loading && !next.Loading {
		close(s.resolved)
	}
	changed := !s.session.Equal(next)
	watchers := make([]func(Session), 0, len(s.watchers))
	if changed {
		s.session = next.copy()
		for _, fn := range s.watchers {
			watchers = append(watchers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(next.copy())
	}
}
