// Package blog wraps the blog API endpoints in typed operations.
package blog

import (
	"github.com/blogster/blogster-client/internal/apiclient"
)

const DefaultLoginPath = "/Auth/Login"

type Service struct {
	Auth  *AuthService
	Users *UserService
	Posts *PostService
}

type Option func(*options)

type options struct {
	loginPath string
}

// WithLoginPath overrides the credential exchange endpoint.
func WithLoginPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.loginPath = path
		}
	}
}

func New(api *apiclient.Client, opts ...Option) *Service {
	o := options{loginPath: DefaultLoginPath}
	for _, opt := range opts {
		opt(&o)
	}
	v := newValidator()
	users := &UserService{api: api, validate: v}
	return &Service{
		Auth:  &AuthService{api: api, users: users, validate: v, loginPath: o.loginPath},
		Users: users,
		Posts: &PostService{api: api, validate: v},
	}
}
