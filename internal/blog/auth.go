package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/models"
	"github.com/blogster/blogster-client/internal/session"
	"github.com/go-playground/validator/v10"
)

// ErrNoToken is returned when the login endpoint answers 2xx without a token.
var ErrNoToken = errors.New("login succeeded but no token returned")

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Name     string
	Email    string
	Password string
}

// loginResponse accepts both a flat session object and {token, user}.
type loginResponse struct {
	Token string       `json:"token"`
	ID    int          `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  models.Role  `json:"role"`
	User  *models.User `json:"user"`
}

func (r loginResponse) session() session.Session {
	s := session.Session{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role, Token: r.Token}
	if r.User != nil {
		s.ID, s.Name, s.Email, s.Role = r.User.ID, r.User.Name, r.User.Email, r.User.Role
	}
	return s
}

type AuthService struct {
	api       *apiclient.Client
	users     *UserService
	validate  *validator.Validate
	loginPath string
}

// Login exchanges credentials for a token and stores the resulting session.
// On any error the store is left as it was.
func (s *AuthService) Login(ctx context.Context, store *session.Store, creds Credentials) (session.Session, error) {
	if err := check(s.validate, creds); err != nil {
		return session.Session{}, err
	}

	var resp loginResponse
	if err := s.api.Post(ctx, s.loginPath, creds, &resp); err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return session.Session{}, ErrNoToken
	}

	sess := resp.session()
	if sess.Email == "" {
		sess.Email = creds.Email
	}
	if err := store.Login(ctx, sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

// Register creates an ordinary account. The API picks the default role.
func (s *AuthService) Register(ctx context.Context, reg Registration) (models.User, error) {
	return s.users.Create(ctx, models.CreateUser{
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
	})
}

func (s *AuthService) Logout(ctx context.Context, store *session.Store) error {
	return store.Logout(ctx)
}
