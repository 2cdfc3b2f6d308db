package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultCookieName is the cookie used when Config.CookieName is empty.
const DefaultCookieName = "_session"

// Config configures a Manager.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager ties sessions to clients through a cookie holding the session ID.
type Manager struct {
	store  Store
	cookie string
	ttl    time.Duration
	secure bool
}

// NewManager returns a Manager persisting sessions in store.
func NewManager(store Store, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store cannot be nil")
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("session TTL cannot be negative: %s", cfg.TTL)
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Manager{store: store, cookie: name, ttl: cfg.TTL, secure: cfg.Secure}, nil
}

// Load returns the session referenced by the request cookie, or a new
// session when there is none or it expired.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookie)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && c.Value == "") {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}

	s, err := m.store.Load(ctx, c.Value)
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Commit persists s when it changed and sets the session cookie on w. It
// must be called before the response header is written.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.Dirty() {
		return nil
	}
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, m.newCookie(s.ID(), int(m.ttl/time.Second)))
	return nil
}

// Destroy deletes s from the store and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Delete(ctx, s.ID()); err != nil {
		return err
	}
	http.SetCookie(w, m.newCookie("", -1))
	return nil
}

func (m *Manager) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
