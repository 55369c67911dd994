package client

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/dashboard"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
	logsvc "github.com/trezcool/maintenance/services/logger"
)

const testPassword = "Maint3nance"

var testLogger = logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())

type fakeAccount struct {
	id      string
	pwd     string
	role    user.Role
	profile bool
}

// fakeAPI mimics the auth & profile endpoints of the API.
type fakeAPI struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount // {email: account}
	ttl      time.Duration
	down     bool // answer 500 to everything
	refuse   bool // answer 401 to token refreshes
	srv      *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{accounts: make(map[string]*fakeAccount), ttl: time.Hour}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", f.login)
	mux.HandleFunc("POST /v1/auth/token-refresh", f.refresh)
	mux.HandleFunc("GET /v1/profiles/{id}", f.profile)
	mux.HandleFunc("GET /v1/sections", f.sections)
	mux.HandleFunc("GET /v1/technician/dashboard", f.dashboard)

	f.srv = httptest.NewServer(f.guard(mux))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) addAccount(email, id string, role user.Role, profile bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = &fakeAccount{id: id, pwd: testPassword, role: role, profile: profile}
}

func (f *fakeAPI) setRole(email string, role user.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email].role = role
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		down := f.down
		f.mu.Unlock()
		if down {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeAPI) token(acc *fakeAccount) string {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   acc.id,
		ExpiresAt: time.Now().Add(f.ttl).Unix(),
	}).SignedString([]byte("secret"))
	return tok
}

// principal returns the account of the bearer token, locked.
func (f *fakeAPI) principal(r *http.Request) *fakeAccount {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	var claims jwt.StandardClaims
	if _, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil }); err != nil {
		return nil
	}
	for _, acc := range f.accounts {
		if acc.id == claims.Subject {
			return acc
		}
	}
	return nil
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[body.Email]
	switch {
	case body.Email == "" || body.Password == "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"email": "this field is required"})
	case !ok || acc.pwd != body.Password:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email or password"})
	case !acc.profile:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "profile not found"})
	default:
		writeJSON(w, http.StatusOK, Token{Token: f.token(acc), PrincipalID: acc.id, Role: acc.role, Landing: session.RouteFor(acc.role)})
	}
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.principal(r)
	switch {
	case acc == nil || f.refuse:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired jwt"})
	case !acc.profile:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "profile not found"})
	default:
		writeJSON(w, http.StatusOK, Token{Token: f.token(acc), PrincipalID: acc.id, Role: acc.role, Landing: session.RouteFor(acc.role)})
	}
}

func (f *fakeAPI) profile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.principal(r)
	switch {
	case acc == nil:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired jwt"})
	case acc.id != r.PathValue("id") || !acc.profile:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		writeJSON(w, http.StatusOK, session.Profile{PrincipalID: acc.id, Role: acc.role})
	}
}

func (f *fakeAPI) sections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, session.Sections())
}

func (f *fakeAPI) dashboard(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc := f.principal(r)
	switch {
	case acc == nil:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired jwt"})
	case acc.role != user.RoleTechnician:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "permission denied", "redirect": session.RouteFor(acc.role)})
	default:
		writeJSON(w, http.StatusOK, dashboard.Summary{Role: acc.role, Cards: []dashboard.Card{{Title: "Pending Tasks", Value: 2}}})
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestVerifier(t *testing.T, f *fakeAPI) (*Verifier, *FileStore) {
	t.Helper()
	files, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return NewVerifier(NewAPI(f.srv.URL, nil), files, testLogger), files
}

// recorder collects the principal ids a subscriber is told about.
type recorder struct {
	ch chan string
}

func newRecorder() *recorder { return &recorder{ch: make(chan string, 16)} }

func (r *recorder) fn(id string) { r.ch <- id }

func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case id := <-r.ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
		return ""
	}
}
