package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
	"pos_sales/internal/config"
)

const cookieName = "pos-session"

const (
	keyID    = "id"
	keyEmail = "email"
	keyName  = "name"
	keyRole  = "role"
)

// ErrNoSession is returned by Load when the request carries no usable
// session.
var ErrNoSession = errors.New("no active session")

// Manager keeps the signed-in identity in a signed cookie.
type Manager struct {
	store  *sessions.CookieStore
	logger *zap.Logger
}

// NewManager builds a cookie store from cfg. An empty secret gets a random
// key, so sessions do not survive a restart.
func NewManager(cfg config.SessionConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET not set, using a random key")
		secret = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(secret)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Secure
	store.Options.SameSite = http.SameSiteLaxMode
	if cfg.MaxAge > 0 {
		store.MaxAge(int(cfg.MaxAge.Seconds()))
	}

	return &Manager{store: store, logger: logger}
}

// Save replaces the session identity with id.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, id auth.Identity) error {
	s, err := m.store.Get(r, cookieName)
	if err != nil {
		m.logger.Debug("discarding unreadable session cookie", zap.Error(err))
	}

	s.Values[keyID] = id.ID
	s.Values[keyEmail] = id.Email
	s.Values[keyName] = id.Name
	s.Values[keyRole] = string(id.Role)

	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the identity stored in the request's session cookie.
func (m *Manager) Load(r *http.Request) (auth.Identity, error) {
	s, err := m.store.Get(r, cookieName)
	if err != nil || s.IsNew {
		return auth.Identity{}, ErrNoSession
	}

	id := auth.Identity{
		ID:    stringValue(s.Values[keyID]),
		Email: stringValue(s.Values[keyEmail]),
		Name:  stringValue(s.Values[keyName]),
		Role:  auth.Role(stringValue(s.Values[keyRole])),
	}
	if id.ID == "" || !id.Role.Valid() {
		return auth.Identity{}, ErrNoSession
	}
	return id, nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	s, _ := m.store.Get(r, cookieName)
	s.Values = map[any]any{}
	s.Options.MaxAge = -1

	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
