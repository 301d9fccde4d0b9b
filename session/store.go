// Package session implements the in-memory operator session store. Sessions
// exist only for the lifetime of the process: there is exactly one operator
// role and nothing here needs to survive a restart.
package session

import (
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gingerhealthcare/profilegen/logging"
)

// CookieName carries the session token in an HttpOnly cookie.
const CookieName = "profilegen_session"

// Session is the per-operator state held between requests.
type Session struct {
	Token      string
	OperatorID string
	CreatedAt  time.Time
	ExpiresAt  time.Time

	// LastPrompt caches the most recently generated prompt so the
	// dashboard can redisplay it.
	LastPrompt string
}

// Store is a TTL-bound in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	done chan struct{}
	once sync.Once
}

// NewStore creates a session store with the given TTL and starts the
// background janitor that sweeps expired sessions.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}

	go s.janitor()
	return s
}

// Create registers a new session for the operator and returns a copy of it.
func (s *Store) Create(operatorID string) Session {
	now := time.Now()
	session := &Session{
		Token:      uuid.NewString(),
		OperatorID: operatorID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	logging.Info("Session created", "operator", operatorID)
	return *session
}

// Get returns a copy of the live session for a token; the stored session is
// only ever touched under the lock. Expired sessions are removed lazily and
// reported as absent. A hit slides the expiry forward.
func (s *Store) Get(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}

	session.ExpiresAt = time.Now().Add(s.ttl)
	return *session, true
}

// Destroy removes a session, if present.
func (s *Store) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// SetLastPrompt stores the latest generated prompt on the session.
func (s *Store) SetLastPrompt(token, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok {
		session.LastPrompt = prompt
	}
}

// Count returns the number of sessions currently held, including any that
// expired but have not been swept yet.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor goroutine.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	now := time.Now()
	removed := 0

	s.mu.Lock()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		logging.Debug("Expired sessions swept", "count", removed)
	}
}

// CredentialsMatch compares the submitted login pair against the configured
// admin credentials in constant time.
func CredentialsMatch(username, password, adminUsername, adminPassword string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(adminPassword)) == 1
	return userOK && passOK
}

// TokenFromRequest extracts the session token from the request cookie.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteCookie sets the session cookie on a response.
func WriteCookie(w http.ResponseWriter, session Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on a response.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
