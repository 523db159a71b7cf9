package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/blogster/blogster-client/internal/models"
)

// authorParam is ?author=N when valid, otherwise the logged-in user.
func authorParam(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("author")); err == nil && n > 0 {
		return n
	}
	sess, _ := currentSession(r)
	return sess.ID
}

func (s *Server) postsList(w http.ResponseWriter, r *http.Request) {
	author := authorParam(r)
	data := map[string]any{"Author": author}
	posts, err := s.svc.Posts.ListByAuthor(r.Context(), author)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		data["Error"] = s.failed(r, "list posts", err)
	}
	data["Posts"] = posts
	s.render(w, r, "posts.html", data)
}

func (s *Server) postsManage(w http.ResponseWriter, r *http.Request) {
	s.renderManage(w, r, map[string]any{})
}

// renderManage re-fetches the author's posts so the table reflects the API.
func (s *Server) renderManage(w http.ResponseWriter, r *http.Request, data map[string]any) {
	sess, _ := currentSession(r)
	posts, err := s.svc.Posts.ListByAuthor(r.Context(), sess.ID)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		if _, set := data["Error"]; !set {
			data["Error"] = s.failed(r, "list posts", err)
		}
	}
	data["Posts"] = posts
	s.render(w, r, "posts_manage.html", data)
}

func (s *Server) postCreateForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "post_form.html", map[string]any{"Action": "/posts"})
}

func (s *Server) postCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess, _ := currentSession(r)
	in := models.CreatePost{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
		UserID:  sess.ID,
	}
	post, err := s.svc.Posts.Create(r.Context(), in)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.render(w, r, "post_form.html", map[string]any{
			"Action": "/posts",
			"Post":   models.Post{Title: in.Title, Content: in.Content},
			"Error":  s.failed(r, "create post", err),
		})
		return
	}
	http.Redirect(w, r, withNotice(fmt.Sprintf("/posts/%d", post.ID), "post-created"), http.StatusSeeOther)
}

func (s *Server) postDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	post, err := s.svc.Posts.Get(r.Context(), id)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.render(w, r, "post_view.html", map[string]any{"Error": s.failed(r, "get post", err)})
		return
	}
	s.render(w, r, "post_view.html", map[string]any{"Post": post})
}

func (s *Server) postEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	post, err := s.svc.Posts.Get(r.Context(), id)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderManage(w, r, map[string]any{"Error": s.failed(r, "get post", err)})
		return
	}
	s.render(w, r, "post_form.html", map[string]any{
		"Action": fmt.Sprintf("/posts/%d/edit", id),
		"Post":   post,
		"Edit":   true,
	})
}

func (s *Server) postUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	sess, _ := currentSession(r)
	in := models.UpdatePost{
		ID:      id,
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
		UserID:  sess.ID,
	}
	if author, err := strconv.Atoi(r.FormValue("author_id")); err == nil && author > 0 {
		in.UserID = author
	}
	// createdAt rides along in a hidden field. If it is missing or garbled
	// the stored post is fetched so the API does not reset it.
	if ts, err := models.ParseTimestamp(r.FormValue("created_at")); err == nil {
		in.CreatedAt = ts
	} else if current, err := s.svc.Posts.Get(r.Context(), id); err == nil {
		in.CreatedAt = current.CreatedAt
		in.UserID = current.AuthorID
	}

	if _, err := s.svc.Posts.Update(r.Context(), in); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.render(w, r, "post_form.html", map[string]any{
			"Action": fmt.Sprintf("/posts/%d/edit", id),
			"Post":   models.Post{ID: id, Title: in.Title, Content: in.Content, AuthorID: in.UserID, CreatedAt: in.CreatedAt},
			"Edit":   true,
			"Error":  s.failed(r, "update post", err),
		})
		return
	}
	http.Redirect(w, r, withNotice(fmt.Sprintf("/posts/%d", id), "post-updated"), http.StatusSeeOther)
}

func (s *Server) postDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	post, err := s.svc.Posts.Get(r.Context(), id)
	if err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderManage(w, r, map[string]any{"Error": s.failed(r, "get post", err)})
		return
	}
	s.render(w, r, "post_delete.html", map[string]any{"Post": post})
}

func (s *Server) postDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := s.svc.Posts.Delete(r.Context(), id); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderManage(w, r, map[string]any{"Error": s.failed(r, "delete post", err)})
		return
	}
	http.Redirect(w, r, withNotice("/posts/manage", "post-deleted"), http.StatusSeeOther)
}
