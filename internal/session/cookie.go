package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultCookieName = "blogster_session"
	DefaultMaxAge     = 24 * time.Hour
	cookieIssuer      = "blogster-web"
)

type CookieOptions struct {
	Name   string
	Secret []byte
	MaxAge time.Duration
	Secure bool
}

func (o CookieOptions) withDefaults() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	return o
}

type cookieClaims struct {
	Data string `json:"dat"`
	jwt.RegisteredClaims
}

// CookieBackend keeps the session in the browser as an HS256-signed JWT
// cookie. It is bound to one request/response pair; a Save or Clear is
// visible to later Loads on the same backend.
type CookieBackend struct {
	w    http.ResponseWriter
	r    *http.Request
	opts CookieOptions

	written bool
	value   []byte
}

func NewCookieBackend(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieBackend {
	return &CookieBackend{w: w, r: r, opts: opts.withDefaults()}
}

func (c *CookieBackend) Load(_ context.Context) ([]byte, error) {
	if c.written {
		if c.value == nil {
			return nil, ErrNotFound
		}
		return c.value, nil
	}

	ck, err := c.r.Cookie(c.opts.Name)
	if err != nil || ck.Value == "" {
		return nil, ErrNotFound
	}

	claims := &cookieClaims{}
	_, err = jwt.ParseWithClaims(ck.Value, claims,
		func(t *jwt.Token) (interface{}, error) { return c.opts.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("session cookie: %w", err)
	}
	return []byte(claims.Data), nil
}

func (c *CookieBackend) Save(_ context.Context, data []byte) error {
	now := time.Now()
	claims := cookieClaims{
		Data: string(data),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.opts.MaxAge)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.opts.Secret)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.written = true
	c.value = append([]byte{}, data...)
	return nil
}

func (c *CookieBackend) Clear(_ context.Context) error {
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.written = true
	c.value = nil
	return nil
}
