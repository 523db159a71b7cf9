// Package apitest runs an in-memory blog API for tests. It speaks the same
// endpoints as the real server and records every request it sees.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blogster/blogster-client/internal/models"
	"github.com/go-chi/chi/v5"
)

// Request is what the fake API saw for one call.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type account struct {
	user     models.User
	password string
}

type API struct {
	URL string

	// BeforeHandle, when set, runs before each authenticated handler. Tests
	// use it to hold a request back.
	BeforeHandle func(r *http.Request)

	mu       sync.Mutex
	users    map[int]*account
	posts    map[int]*models.Post
	tokens   map[string]int
	requests []Request
	nextUser int
	nextPost int
	clock    time.Time
}

// NewServer starts the fake API and stops it when the test ends.
func NewServer(t testing.TB) *API {
	t.Helper()
	api := &API{
		users:    make(map[int]*account),
		posts:    make(map[int]*models.Post),
		tokens:   make(map[string]int),
		nextUser: 1,
		nextPost: 1,
		clock:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	srv := httptest.NewServer(api.router())
	t.Cleanup(srv.Close)
	api.URL = srv.URL
	return api
}

func (a *API) router() http.Handler {
	r := chi.NewRouter()
	r.Use(a.record)

	r.Post("/Auth/Login", a.login)
	r.Post("/User/CreateUser", a.createUser)

	r.Group(func(r chi.Router) {
		r.Use(a.requireToken)
		r.Get("/User/GetAllUsers", a.listUsers)
		r.Get("/User/GetUserById/{id}", a.getUser)
		r.Put("/User/UpdateUser", a.updateUser)
		r.Delete("/User/DeleteUser/{id}", a.deleteUser)

		r.Post("/Post/CreatePost", a.createPost)
		r.Get("/Post/GetAllPostsByAuthorId/{id}", a.listPosts)
		r.Get("/Post/GetPostById/{id}", a.getPost)
		r.Put("/Post/UpdatePost", a.updatePost)
		r.Delete("/Post/DeletePost/{id}", a.deletePost)
	})
	return r
}

// AddUser seeds an account and returns it.
func (a *API) AddUser(name, email, password string, role models.Role) models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addUserLocked(name, email, password, role)
}

func (a *API) addUserLocked(name, email, password string, role models.Role) models.User {
	u := models.User{ID: a.nextUser, Name: name, Email: email, Role: role}
	a.nextUser++
	a.users[u.ID] = &account{user: u, password: password}
	return u
}

// AddPost seeds a post with a creation time one minute after the previous one.
func (a *API) AddPost(authorID int, title, content string) models.Post {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addPostLocked(authorID, title, content)
}

func (a *API) addPostLocked(authorID int, title, content string) models.Post {
	a.clock = a.clock.Add(time.Minute)
	p := &models.Post{
		ID:        a.nextPost,
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: models.Timestamp{Time: a.clock},
	}
	a.nextPost++
	a.posts[p.ID] = p
	return *p
}

// IssueToken returns a valid token for userID without going through login.
func (a *API) IssueToken(userID int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.issueLocked(userID)
}

func (a *API) issueLocked(userID int) string {
	tok := fmt.Sprintf("token-%d-%d", userID, len(a.tokens)+1)
	a.tokens[tok] = userID
	return tok
}

// RevokeTokens invalidates every issued token.
func (a *API) RevokeTokens() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = make(map[string]int)
}

func (a *API) Post(id int) (models.Post, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.posts[id]
	if !ok {
		return models.Post{}, false
	}
	return *p, true
}

func (a *API) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

func (a *API) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		a.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (a *API) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		a.mu.Lock()
		_, ok := a.tokens[tok]
		a.mu.Unlock()
		if tok == "" || !ok {
			writeError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if a.BeforeHandle != nil {
			a.BeforeHandle(r)
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.users {
		if strings.EqualFold(acc.user.Email, in.Email) && acc.password == in.Password {
			writeJSON(w, http.StatusOK, map[string]any{
				"token": a.issueLocked(acc.user.ID),
				"user":  acc.user,
			})
			return
		}
	}
	writeError(w, "invalid credentials", http.StatusUnauthorized)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var in models.CreateUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		writeError(w, "name, email and password are required", http.StatusBadRequest)
		return
	}
	role := models.RoleUser
	if in.Role != nil {
		role = *in.Role
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.users {
		if strings.EqualFold(acc.user.Email, in.Email) {
			writeError(w, "email already registered", http.StatusConflict)
			return
		}
	}
	writeJSON(w, http.StatusOK, a.addUserLocked(in.Name, in.Email, in.Password, role))
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.User, 0, len(a.users))
	for id := 1; id < a.nextUser; id++ {
		if acc, ok := a.users[id]; ok {
			out = append(out, acc.user)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.users[id]
	if !ok {
		writeError(w, "user not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateUser
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.users[in.ID]
	if !ok {
		writeError(w, "user not found", http.StatusNotFound)
		return
	}
	acc.user.Name, acc.user.Email, acc.user.Role = in.Name, in.Email, in.Role
	writeJSON(w, http.StatusOK, acc.user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[id]; !ok {
		writeError(w, "user not found", http.StatusNotFound)
		return
	}
	delete(a.users, id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	var in models.CreatePost
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[in.UserID]; !ok {
		writeError(w, "author not found", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, a.addPostLocked(in.UserID, in.Title, in.Content))
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	authorID, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Post, 0)
	for id := 1; id < a.nextPost; id++ {
		if p, ok := a.posts[id]; ok && p.AuthorID == authorID {
			out = append(out, *p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getPost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.posts[id]
	if !ok {
		writeError(w, "post not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) updatePost(w http.ResponseWriter, r *http.Request) {
	var in models.UpdatePost
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid json", http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.posts[in.ID]
	if !ok {
		writeError(w, "post not found", http.StatusNotFound)
		return
	}
	p.Title, p.Content, p.AuthorID = in.Title, in.Content, in.UserID
	if !in.CreatedAt.IsZero() {
		p.CreatedAt = in.CreatedAt
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.posts[id]; !ok {
		writeError(w, "post not found", http.StatusNotFound)
		return
	}
	delete(a.posts, id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
