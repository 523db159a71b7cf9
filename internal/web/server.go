// Package web is the server-rendered Blogster UI. Every page is a thin
// handler over blog.Service; the browser holds the session in a signed cookie.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/blog"
	"github.com/blogster/blogster-client/internal/middleware"
	"github.com/blogster/blogster-client/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Cookie session.CookieOptions
	// LoginLimiter guards POST /login and /register. Nil disables limiting.
	LoginLimiter *middleware.IPRateLimiter
	MaxFormBytes int64
	Logger       *slog.Logger
}

type Server struct {
	svc   *blog.Service
	opts  Options
	log   *slog.Logger
	pages *renderer
}

// New builds the UI. svc must use an apiclient.Client whose SessionSource is
// session.ContextSource so calls pick up the per-request session.
func New(svc *blog.Service, opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	pages, err := newRenderer(log)
	if err != nil {
		return nil, err
	}
	return &Server{svc: svc, opts: opts, log: log, pages: pages}, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(s.opts.Cookie.Secure))
	r.Use(middleware.MaxBytes(s.opts.MaxFormBytes))

	// Health (no session, no templates)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	limited := func(h http.HandlerFunc) http.Handler {
		if s.opts.LoginLimiter == nil {
			return h
		}
		return s.opts.LoginLimiter.Middleware(h)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		// Public
		r.Get("/login", s.loginForm)
		r.Method(http.MethodPost, "/login", limited(s.loginSubmit))
		r.Get("/register", s.registerForm)
		r.Method(http.MethodPost, "/register", limited(s.registerSubmit))
		r.Get("/logout", s.logout)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.postsList)
			r.Get("/posts", s.postsList)
			r.Get("/posts/manage", s.postsManage)
			r.Get("/posts/new", s.postCreateForm)
			r.Post("/posts", s.postCreate)
			r.Get("/posts/{id}", s.postDetail)
			r.Get("/posts/{id}/edit", s.postEditForm)
			r.Post("/posts/{id}/edit", s.postUpdate)
			r.Get("/posts/{id}/delete", s.postDeleteConfirm)
			r.Post("/posts/{id}/delete", s.postDelete)

			r.Get("/users", s.usersList)
			r.Get("/users/new", s.userCreateForm)
			r.Post("/users", s.userCreate)
			r.Get("/users/{id}/edit", s.userEditForm)
			r.Post("/users/{id}/edit", s.userUpdate)
			r.Get("/users/{id}/delete", s.userDeleteConfirm)
			r.Post("/users/{id}/delete", s.userDelete)
		})
	})
	return r
}

// withSession gives every request its own cookie-backed Store.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := session.NewStore(session.NewCookieBackend(w, r, s.opts.Cookie), s.log)
		next.ServeHTTP(w, r.WithContext(session.WithStore(r.Context(), store)))
	})
}

// requireSession redirects to /login if there is no valid session cookie.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentSession(r); !ok {
			redirectToLogin(w, r, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentSession(r *http.Request) (session.Session, bool) {
	return session.StoreFrom(r.Context()).Current(r.Context())
}

// redirectToLogin sends the browser to /login with next set to the current page.
func redirectToLogin(w http.ResponseWriter, r *http.Request, notice string) {
	next := r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	target := "/login?next=" + url.QueryEscape(next)
	if notice != "" {
		target += "&notice=" + url.QueryEscape(notice)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// expired handles an API 401: the token is no longer accepted, so the
// session is dropped and the user is sent to log in again. It reports
// whether it wrote the response.
func (s *Server) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apiclient.IsStatus(err, http.StatusUnauthorized) {
		return false
	}
	if logoutErr := session.StoreFrom(r.Context()).Logout(r.Context()); logoutErr != nil {
		s.log.Warn("clear session after 401", "error", logoutErr)
	}
	redirectToLogin(w, r, "session-expired")
	return true
}

// failed logs err and returns the text to show on the page.
func (s *Server) failed(r *http.Request, action string, err error) string {
	var verr *blog.ValidationError
	level := slog.LevelWarn
	if errors.As(err, &verr) {
		level = slog.LevelDebug
	}
	s.log.Log(r.Context(), level, action+" failed",
		"request_id", chimw.GetReqID(r.Context()),
		"error", err)
	return errorText(err)
}

// view assembles the template data common to every page.
func (s *Server) view(r *http.Request, data map[string]any) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	if sess, ok := currentSession(r); ok {
		data["Session"] = sess
		data["LoggedIn"] = true
	}
	if _, set := data["Notice"]; !set {
		data["Notice"] = noticeFrom(r)
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	s.pages.render(w, http.StatusOK, name, s.view(r, data))
}

// idParam parses {id}; ok is false (and a 404 written) when it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// safeNext only allows local absolute paths as a post-login destination.
// Browsers drop tabs and newlines and treat a backslash as a slash, so any
// control character or backslash is refused.
func safeNext(next string) string {
	const fallback = "/posts"
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	if strings.ContainsRune(next, '\\') || strings.ContainsFunc(next, unicode.IsControl) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
