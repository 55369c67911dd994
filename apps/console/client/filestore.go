package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/user"
)

const credentialsFile = "credentials.json"

var ErrNotLoggedIn = errors.New("not logged in")

// Credentials is what the console remembers of a sign-in.
type Credentials struct {
	Token       string    `json:"token"`
	PrincipalID string    `json:"principal_id"`
	Role        user.Role `json:"role"`
	Email       string    `json:"email,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

func newCredentials(tok Token, email string) Credentials {
	return Credentials{
		Token:       tok.Token,
		PrincipalID: tok.PrincipalID,
		Role:        tok.Role,
		Email:       email,
		ExpiresAt:   tokenExpiry(tok.Token),
	}
}

// tokenExpiry reads the exp claim without checking the signature: the server does that.
func tokenExpiry(token string) time.Time {
	var claims jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(claims.ExpiresAt, 0).UTC()
}

// FileStore keeps the credentials in a JSON file readable by its owner only.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore stores credentials under dir, or under the user config dir when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "finding user config dir")
		}
		dir = filepath.Join(cfgDir, "maintenance")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "creating credentials dir")
	}
	return &FileStore{path: filepath.Join(dir, credentialsFile)}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	if err = os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrap(err, "writing credentials")
	}
	return nil
}

// Load returns ErrNotLoggedIn when no credentials were saved.
func (s *FileStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNotLoggedIn
		}
		return Credentials{}, errors.Wrap(err, "reading credentials")
	}
	var creds Credentials
	if err = json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, errors.Wrap(err, "decoding credentials")
	}
	if creds.Token == "" || creds.PrincipalID == "" {
		return Credentials{}, ErrNotLoggedIn
	}
	return creds, nil
}

func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting credentials")
	}
	return nil
}
