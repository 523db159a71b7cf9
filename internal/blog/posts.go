package blog

import (
	"context"
	"fmt"
	"sort"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/models"
	"github.com/go-playground/validator/v10"
)

type PostService struct {
	api      *apiclient.Client
	validate *validator.Validate
}

func (s *PostService) Create(ctx context.Context, in models.CreatePost) (models.Post, error) {
	if err := check(s.validate, in); err != nil {
		return models.Post{}, err
	}
	var post models.Post
	if err := s.api.Post(ctx, "/Post/CreatePost", in, &post); err != nil {
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// ListByAuthor returns the author's posts, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID int) ([]models.Post, error) {
	var posts []models.Post
	if err := s.api.Get(ctx, fmt.Sprintf("/Post/GetAllPostsByAuthorId/%d", authorID), &posts); err != nil {
		return nil, fmt.Errorf("list posts of author %d: %w", authorID, err)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt.Time)
	})
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id int) (models.Post, error) {
	var post models.Post
	if err := s.api.Get(ctx, fmt.Sprintf("/Post/GetPostById/%d", id), &post); err != nil {
		return models.Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, in models.UpdatePost) (models.Post, error) {
	if err := check(s.validate, in); err != nil {
		return models.Post{}, err
	}
	var post models.Post
	if err := s.api.Put(ctx, "/Post/UpdatePost", in, &post); err != nil {
		return models.Post{}, fmt.Errorf("update post %d: %w", in.ID, err)
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id int) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/Post/DeletePost/%d", id), nil); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}
