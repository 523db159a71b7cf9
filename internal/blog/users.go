package blog

import (
	"context"
	"fmt"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/models"
	"github.com/go-playground/validator/v10"
)

type UserService struct {
	api      *apiclient.Client
	validate *validator.Validate
}

func (s *UserService) Create(ctx context.Context, in models.CreateUser) (models.User, error) {
	if err := check(s.validate, in); err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := s.api.Post(ctx, "/User/CreateUser", in, &user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.api.Get(ctx, "/User/GetAllUsers", &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int) (models.User, error) {
	var user models.User
	if err := s.api.Get(ctx, fmt.Sprintf("/User/GetUserById/%d", id), &user); err != nil {
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, in models.UpdateUser) (models.User, error) {
	if err := check(s.validate, in); err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := s.api.Put(ctx, "/User/UpdateUser", in, &user); err != nil {
		return models.User{}, fmt.Errorf("update user %d: %w", in.ID, err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/User/DeleteUser/%d", id), nil); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}
