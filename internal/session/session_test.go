package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pos_sales/internal/auth"
	"pos_sales/internal/config"
)

func newManager(t *testing.T, secret string) *Manager {
	return NewManager(config.SessionConfig{Secret: secret, MaxAge: time.Hour}, zaptest.NewLogger(t))
}

// roundTrip saves id on one request and returns a second request carrying
// the resulting cookies.
func roundTrip(t *testing.T, m *Manager, id auth.Identity) *http.Request {
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil), id))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	return next
}

func TestSaveLoad(t *testing.T) {
	m := newManager(t, "0123456789abcdef0123456789abcdef")
	want := auth.Identity{ID: "u-1", Email: "ana@example.com", Name: "Ana", Role: auth.RoleUser}

	got, err := m.Load(roundTrip(t, m, want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_NoCookie(t *testing.T) {
	m := newManager(t, "secret")

	_, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoad_ForeignSecret(t *testing.T) {
	signer := newManager(t, "first-secret-first-secret-first!")
	reader := newManager(t, "other-secret-other-secret-other!")

	req := roundTrip(t, signer, auth.Identity{ID: "admin-1", Role: auth.RoleAdmin})
	_, err := reader.Load(req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClear(t *testing.T) {
	m := newManager(t, "secret")
	req := roundTrip(t, m, auth.Identity{ID: "temp-1", Role: auth.RoleTemp})

	w := httptest.NewRecorder()
	require.NoError(t, m.Clear(w, req))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestNewManager_RandomSecret(t *testing.T) {
	a := newManager(t, "")
	b := newManager(t, "")

	req := roundTrip(t, a, auth.Identity{ID: "u-1", Role: auth.RoleUser})
	_, err := a.Load(req)
	require.NoError(t, err)

	_, err = b.Load(req)
	assert.ErrorIs(t, err, ErrNoSession)
}
