// Package session keeps the authenticated identity of the client together
// with the API token that goes with it.
//
// A Store is the only code that reads or writes persisted session data.
// Where the bytes live is decided by a Backend: a file for the CLI, a signed
// cookie for the web UI, or memory.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blogster/blogster-client/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotFound is returned by a Backend when nothing is stored.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidSession is returned by Login for a session without a token.
	ErrInvalidSession = errors.New("invalid session")
)

// Session is the logged-in identity. It is only ever replaced as a whole.
type Session struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Token string      `json:"token"`
}

// Backend persists the encoded session.
type Backend interface {
	// Load returns ErrNotFound when no session is stored.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	// Clear must succeed when nothing is stored.
	Clear(ctx context.Context) error
}

type Store struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time
}

func NewStore(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: backend, log: log, now: time.Now}
}

// Login replaces any stored session with sess.
func (s *Store) Login(ctx context.Context, sess Session) error {
	if sess.Token == "" {
		return ErrInvalidSession
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout removes the stored session. Calling it while logged out is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the stored session. Missing, unreadable or expired data
// reports false; it never fails.
func (s *Store) Current(ctx context.Context) (Session, bool) {
	if s == nil || s.backend == nil {
		return Session{}, false
	}
	data, err := s.backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("session unreadable, treating as logged out", "error", err)
		}
		return Session{}, false
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.log.Warn("session corrupt, treating as logged out", "error", err)
		return Session{}, false
	}
	if sess.Token == "" {
		s.log.Warn("session has no token, treating as logged out")
		return Session{}, false
	}
	if tokenExpired(sess.Token, s.now()) {
		s.log.Warn("session token expired", "user_id", sess.ID)
		return Session{}, false
	}
	return sess, true
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens never expire on the client side.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
