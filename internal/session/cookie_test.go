package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCookieOpts = CookieOptions{Secret: []byte("cookie-secret"), MaxAge: time.Hour}

// loginCookie logs ana in through a cookie backend and returns the cookie the
// browser would send back.
func loginCookie(t *testing.T, opts CookieOptions) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	store := NewStore(NewCookieBackend(rec, req, opts), nil)
	require.NoError(t, store.Login(context.Background(), ana))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestCookieBackend_SurvivesReload(t *testing.T) {
	ck := loginCookie(t, testCookieOpts)
	assert.Equal(t, DefaultCookieName, ck.Name)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, 3600, ck.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.AddCookie(ck)
	store := NewStore(NewCookieBackend(httptest.NewRecorder(), req, testCookieOpts), nil)

	got, ok := store.Current(context.Background())
	require.True(t, ok)
	assert.Equal(t, ana, got)
}

func TestCookieBackend_WriteVisibleInSameRequest(t *testing.T) {
	ctx := context.Background()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	store := NewStore(NewCookieBackend(rec, req, testCookieOpts), nil)

	require.NoError(t, store.Login(ctx, ana))
	_, ok := store.Current(ctx)
	assert.True(t, ok)

	require.NoError(t, store.Logout(ctx))
	_, ok = store.Current(ctx)
	assert.False(t, ok)
}

func TestCookieBackend_LogoutExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(loginCookie(t, testCookieOpts))

	store := NewStore(NewCookieBackend(rec, req, testCookieOpts), nil)
	require.NoError(t, store.Logout(context.Background()))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCookieBackend_RejectsBadCookies(t *testing.T) {
	good := loginCookie(t, testCookieOpts)

	otherSecret := testCookieOpts
	otherSecret.Secret = []byte("someone-else")
	forged := loginCookie(t, otherSecret)

	expiredTok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		Data: `{"id":1,"token":"x"}`,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString(testCookieOpts.Secret)
	require.NoError(t, err)

	parts := strings.Split(good.Value, ".")
	require.Len(t, parts, 3)
	flip := "A"
	if strings.HasPrefix(parts[2], "A") {
		flip = "B"
	}
	tampered := parts[0] + "." + parts[1] + "." + flip + parts[2][1:]

	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "not-a-jwt"},
		{"tampered", tampered},
		{"wrong secret", forged.Value},
		{"expired", expiredTok},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tt.value})
			store := NewStore(NewCookieBackend(httptest.NewRecorder(), req, testCookieOpts), nil)

			_, ok := store.Current(context.Background())
			assert.False(t, ok)
		})
	}
}
