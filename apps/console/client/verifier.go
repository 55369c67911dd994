package client

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/session"
)

const defaultRefreshInterval = 10 * time.Minute

type (
	// Verifier is the console's credential verifier: it signs in against the API and keeps the token fresh.
	Verifier struct {
		api    *API
		files  *FileStore
		logger core.Logger
		now    func() time.Time

		mu      sync.Mutex
		loaded  bool
		current string // signed in principal id, empty when absent
		subs    map[int]*subscriber
		nextSub int
	}

	subscriber struct {
		mu   sync.Mutex // serializes deliveries
		fn   func(principalID string)
		done atomic.Bool
	}
)

var _ session.CredentialVerifier = (*Verifier)(nil)

func NewVerifier(api *API, files *FileStore, logger core.Logger) *Verifier {
	vala.BeginValidation().Validate(
		vala.IsNotNil(api, "api"),
		vala.IsNotNil(files, "files"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Verifier{
		api:    api,
		files:  files,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]*subscriber),
	}
}

// Verify signs in and persists the token.
func (v *Verifier) Verify(ctx context.Context, email, pwd string) (string, error) {
	tok, err := v.api.Login(ctx, email, pwd)
	if err != nil {
		return "", err
	}
	if err = v.files.Save(newCredentials(tok, email)); err != nil {
		return "", err
	}
	v.setCurrent(tok.PrincipalID)
	return tok.PrincipalID, nil
}

// SignOut forgets the token. Subscribers are told no one is signed in even if the file could not be removed.
func (v *Verifier) SignOut(context.Context) error {
	err := v.files.Delete()
	v.setCurrent("")
	return err
}

// Subscribe delivers the current state asynchronously, then every change.
// Deliveries to one subscriber never overlap and always carry the latest state.
func (v *Verifier) Subscribe(onChange func(principalID string)) (unsubscribe func()) {
	sub := &subscriber{fn: onChange}

	v.mu.Lock()
	v.loadLocked()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = sub
	v.mu.Unlock()

	go v.deliver(sub)

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.done.Store(true)
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// PrincipalID returns the signed in principal, if any.
func (v *Verifier) PrincipalID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadLocked()
	return v.current
}

// Refresh trades the stored token for a fresh one and re-announces the principal.
// A token the API refuses signs the principal out.
func (v *Verifier) Refresh(ctx context.Context) error {
	creds, err := v.files.Load()
	if err != nil {
		if err == ErrNotLoggedIn {
			return nil
		}
		return err
	}

	tok, err := v.api.Refresh(ctx, creds.Token)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code < http.StatusInternalServerError {
			v.logger.Warn("token refused, signing out", err, map[string]interface{}{"principal_id": creds.PrincipalID})
			if rmErr := v.files.Delete(); rmErr != nil {
				v.logger.Error("deleting credentials", rmErr)
			}
			v.setCurrent("")
			return nil
		}
		return err
	}

	if err = v.files.Save(newCredentials(tok, creds.Email)); err != nil {
		return err
	}
	v.setCurrent(tok.PrincipalID)
	return nil
}

// Run refreshes the token every interval until ctx is done.
func (v *Verifier) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.Refresh(ctx); err != nil && ctx.Err() == nil {
				v.logger.Warn("refreshing token", err)
			}
		}
	}
}

// loadLocked reads the initial state from the credentials file, once.
func (v *Verifier) loadLocked() {
	if v.loaded {
		return
	}
	v.loaded = true

	creds, err := v.files.Load()
	if err != nil {
		if err != ErrNotLoggedIn {
			v.logger.Warn("loading credentials", err)
		}
		return
	}
	if creds.Expired(v.now()) {
		return
	}
	v.current = creds.PrincipalID
}

func (v *Verifier) setCurrent(principalID string) {
	v.mu.Lock()
	v.loaded = true
	v.current = principalID
	subs := make([]*subscriber, 0, len(v.subs))
	for _, sub := range v.subs {
		subs = append(subs, sub)
	}
	v.mu.Unlock()

	for _, sub := range subs {
		v.deliver(sub)
	}
}

func (v *Verifier) deliver(sub *subscriber) {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.done.Load() {
		return
	}
	v.mu.Lock()
	id := v.current
	v.mu.Unlock()
	sub.fn(id)
}
