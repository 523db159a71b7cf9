package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/blog"
	"github.com/blogster/blogster-client/internal/logger"
	"github.com/blogster/blogster-client/internal/session"
)

const (
	defaultAPIURL = "http://localhost:5000"

	envAPIURL      = "BLOGSTER_API_URL"
	envSessionFile = "BLOGSTER_SESSION_FILE"
	envLoginPath   = "BLOGSTER_LOGIN_PATH"
	envLogLevel    = "BLOGSTER_LOG_LEVEL"
)

// ErrNotLoggedIn is returned by commands that need a session when none is stored.
var ErrNotLoggedIn = errors.New("not logged in (run: blogster login --email ...)")

// APIURL returns the base URL for the blog API.
// It can be overridden with the BLOGSTER_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv(envAPIURL); v != "" {
		return v
	}
	return defaultAPIURL
}

// SessionPath is BLOGSTER_SESSION_FILE, or ~/.blogster_session.
func SessionPath() (string, error) {
	if v := os.Getenv(envSessionFile); v != "" {
		return v, nil
	}
	return session.DefaultPath()
}

// Logger writes to stderr so it never mixes with command output. The level
// defaults to warn; set BLOGSTER_LOG_LEVEL=debug to see every API call.
func Logger() *slog.Logger {
	level := os.Getenv(envLogLevel)
	if level == "" {
		level = "warn"
	}
	return logger.New(os.Stderr, logger.FormatText, level)
}

// Store opens the file-backed session store.
func Store() (*session.Store, error) {
	path, err := SessionPath()
	if err != nil {
		return nil, fmt.Errorf("locate session file: %w", err)
	}
	return session.NewStore(session.NewFileBackend(path), Logger()), nil
}

// Service builds the blog API service authenticated from store.
func Service(store *session.Store) *blog.Service {
	api := apiclient.New(APIURL(), store, apiclient.WithLogger(Logger()))
	return blog.New(api, blog.WithLoginPath(os.Getenv(envLoginPath)))
}

// RequireSession returns the stored session or ErrNotLoggedIn.
func RequireSession(ctx context.Context, store *session.Store) (session.Session, error) {
	sess, ok := store.Current(ctx)
	if !ok {
		return session.Session{}, ErrNotLoggedIn
	}
	return sess, nil
}

// Unauthorized clears the stored session when the API rejected its token,
// so the next command starts logged out. Other errors pass through.
func Unauthorized(ctx context.Context, store *session.Store, err error) error {
	if !apiclient.IsStatus(err, http.StatusUnauthorized) {
		return err
	}
	if clearErr := store.Logout(ctx); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return fmt.Errorf("%w; session cleared, log in again", err)
}
