package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/blogster/blogster-client/internal/models"
)

var roleOptions = []models.Role{models.RoleAdmin, models.RoleUser}

func (s *Server) usersList(w http.ResponseWriter, r *http.Request) {
	s.renderUsers(w, r, map[string]any{})
}

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, data map[string]any) {
	users, err := s.svc.Users.List(r.Context())
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		if _, set := data["Error"]; !set {
			data["Error"] = s.failed(r, "list users", err)
		}
	}
	data["Users"] = users
	s.render(w, r, "users.html", data)
}

func (s *Server) userCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "user_form.html", map[string]any{
		"Action": "/users",
		"User":   models.User{Role: models.RoleUser},
		"Roles":  roleOptions,
	})
}

func (s *Server) userCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	role := models.ParseRole(r.FormValue("role"))
	in := models.CreateUser{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Role:     &role,
	}
	if _, err := s.svc.Users.Create(r.Context(), in); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.render(w, r, "user_form.html", map[string]any{
			"Action": "/users",
			"User":   models.User{Name: in.Name, Email: in.Email, Role: role},
			"Roles":  roleOptions,
			"Error":  s.failed(r, "create user", err),
		})
		return
	}
	http.Redirect(w, r, withNotice("/users", "user-created"), http.StatusSeeOther)
}

func (s *Server) userEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	user, err := s.svc.Users.Get(r.Context(), id)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderUsers(w, r, map[string]any{"Error": s.failed(r, "get user", err)})
		return
	}
	s.render(w, r, "user_form.html", map[string]any{
		"Action": fmt.Sprintf("/users/%d/edit", id),
		"User":   user,
		"Roles":  roleOptions,
		"Edit":   true,
	})
}

func (s *Server) userUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	in := models.UpdateUser{
		ID:    id,
		Name:  strings.TrimSpace(r.FormValue("name")),
		Email: strings.TrimSpace(r.FormValue("email")),
		Role:  models.ParseRole(r.FormValue("role")),
	}
	if _, err := s.svc.Users.Update(r.Context(), in); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.render(w, r, "user_form.html", map[string]any{
			"Action": fmt.Sprintf("/users/%d/edit", id),
			"User":   models.User{ID: id, Name: in.Name, Email: in.Email, Role: in.Role},
			"Roles":  roleOptions,
			"Edit":   true,
			"Error":  s.failed(r, "update user", err),
		})
		return
	}
	http.Redirect(w, r, withNotice("/users", "user-updated"), http.StatusSeeOther)
}

func (s *Server) userDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	user, err := s.svc.Users.Get(r.Context(), id)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderUsers(w, r, map[string]any{"Error": s.failed(r, "get user", err)})
		return
	}
	s.render(w, r, "user_delete.html", map[string]any{"User": user})
}

func (s *Server) userDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Users.Delete(r.Context(), id); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderUsers(w, r, map[string]any{"Error": s.failed(r, "delete user", err)})
		return
	}
	http.Redirect(w, r, withNotice("/users", "user-deleted"), http.StatusSeeOther)
}
