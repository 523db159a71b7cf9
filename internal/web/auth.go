package web

import (
	"net/http"
	"strings"

	"github.com/blogster/blogster-client/internal/blog"
	"github.com/blogster/blogster-client/internal/metrics"
	"github.com/blogster/blogster-client/internal/session"
)

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if _, ok := currentSession(r); ok {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}
	s.render(w, r, "login.html", map[string]any{"Next": next})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	creds := blog.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	next := safeNext(r.FormValue("next"))

	store := session.StoreFrom(r.Context())
	if _, err := s.svc.Auth.Login(r.Context(), store, creds); err != nil {
		metrics.IncLogin("failure")
		s.render(w, r, "login.html", map[string]any{
			"Next":  next,
			"Email": creds.Email,
			"Error": s.failed(r, "login", err),
		})
		return
	}
	metrics.IncLogin("success")
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) registerForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", nil)
}

func (s *Server) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	reg := blog.Registration{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if reg.Password != r.FormValue("confirm_password") {
		s.render(w, r, "register.html", map[string]any{
			"Name": reg.Name, "Email": reg.Email,
			"Error": "Passwords do not match.",
		})
		return
	}
	if _, err := s.svc.Auth.Register(r.Context(), reg); err != nil {
		s.render(w, r, "register.html", map[string]any{
			"Name": reg.Name, "Email": reg.Email,
			"Error": s.failed(r, "register", err),
		})
		return
	}
	http.Redirect(w, r, withNotice("/login", "registered"), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Auth.Logout(r.Context(), session.StoreFrom(r.Context())); err != nil {
		s.log.Warn("logout", "error", err)
	}
	http.Redirect(w, r, withNotice("/login", "logged-out"), http.StatusFound)
}
