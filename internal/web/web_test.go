package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/apitest"
	"github.com/blogster/blogster-client/internal/blog"
	"github.com/blogster/blogster-client/internal/models"
	"github.com/blogster/blogster-client/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type browser struct {
	t    *testing.T
	base string
	hc   *http.Client
}

func setupUI(t *testing.T) (*apitest.API, *browser) {
	t.Helper()
	api := apitest.NewServer(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	client := apiclient.New(api.URL, session.ContextSource{}, apiclient.WithLogger(log))
	srv, err := New(blog.New(client), Options{
		Cookie: session.CookieOptions{Secret: []byte("test-secret")},
		Logger: log,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	hc := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return api, &browser{t: t, base: ts.URL, hc: hc}
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.hc.Get(b.base + path)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.hc.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return resp, readBody(b.t, resp)
}

func (b *browser) login(email, password string) {
	b.t.Helper()
	resp, _ := b.post("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(b.t, "/posts", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealth(t *testing.T) {
	_, b := setupUI(t)
	resp, body := b.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestProtectedPageRedirectsToLogin(t *testing.T) {
	_, b := setupUI(t)
	resp, _ := b.get("/posts/manage")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fposts%2Fmanage", resp.Header.Get("Location"))
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleAdmin)

	b.login("ann@example.com", "pw")

	resp, body := b.get("/posts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Ann (Admin)")
	assert.Contains(t, body, "Logout")

	// Already logged in: the login page sends the user on.
	resp, _ = b.get("/login")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)

	resp, body := b.post("/login", url.Values{"email": {"ann@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "invalid credentials")
	assert.Contains(t, body, `value="ann@example.com"`)

	resp, _ = b.get("/posts")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestLogin_HonoursLocalNextOnly(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)

	resp, _ := b.post("/login", url.Values{
		"email": {"ann@example.com"}, "password": {"pw"}, "next": {"//evil.example"},
	})
	assert.Equal(t, "/posts", resp.Header.Get("Location"))

	resp, _ = b.post("/login", url.Values{
		"email": {"ann@example.com"}, "password": {"pw"}, "next": {"/users"},
	})
	assert.Equal(t, "/users", resp.Header.Get("Location"))

	for _, next := range []string{"/\t/evil.example", "/\r\n/evil.example", "/\\evil.example"} {
		resp, _ = b.post("/login", url.Values{
			"email": {"ann@example.com"}, "password": {"pw"}, "next": {next},
		})
		assert.Equal(t, "/posts", resp.Header.Get("Location"), "%q", next)
	}

	// Already logged in: GET /login redirects straight to next.
	resp, _ = b.get("/login?next=" + url.QueryEscape("/\t/evil.example"))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/posts", resp.Header.Get("Location"))
}

func TestRegisterThenLogin(t *testing.T) {
	_, b := setupUI(t)

	resp, body := b.post("/register", url.Values{
		"name": {"Bob"}, "email": {"bob@example.com"},
		"password": {"pw1"}, "confirm_password": {"pw2"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Passwords do not match.")

	resp, _ = b.post("/register", url.Values{
		"name": {"Bob"}, "email": {"bob@example.com"},
		"password": {"pw1"}, "confirm_password": {"pw1"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?notice=registered", resp.Header.Get("Location"))

	b.login("bob@example.com", "pw1")
	_, body = b.get("/posts")
	assert.Contains(t, body, "Bob (User)")
}

func TestCreatePostThenList(t *testing.T) {
	api, b := setupUI(t)
	ann := api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	b.login("ann@example.com", "pw")

	resp, _ := b.post("/posts", url.Values{"title": {"Hello"}, "content": {"First post"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/posts/1?notice=post-created", resp.Header.Get("Location"))

	p, ok := api.Post(1)
	require.True(t, ok)
	assert.Equal(t, ann.ID, p.AuthorID)

	_, body := b.get("/posts")
	assert.Contains(t, body, "Hello")
	assert.Contains(t, body, "First post")

	_, body = b.get("/posts/1?notice=post-created")
	assert.Contains(t, body, "Post created successfully!")
}

func TestCreatePost_MissingTitle(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	b.login("ann@example.com", "pw")

	resp, body := b.post("/posts", url.Values{"title": {" "}, "content": {"text"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please check the form: title is required.")
	_, ok := api.Post(1)
	assert.False(t, ok)
}

func TestEditPostKeepsCreatedAt(t *testing.T) {
	api, b := setupUI(t)
	ann := api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	orig := api.AddPost(ann.ID, "Old", "old text")
	b.login("ann@example.com", "pw")

	_, body := b.get("/posts/1/edit")
	assert.Contains(t, body, `name="created_at"`)

	resp, _ := b.post("/posts/1/edit", url.Values{
		"title": {"New"}, "content": {"new text"},
		"created_at": {orig.CreatedAt.Format("2006-01-02T15:04:05")},
		"author_id":  {"1"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p, _ := api.Post(1)
	assert.Equal(t, "New", p.Title)
	assert.True(t, orig.CreatedAt.Equal(p.CreatedAt.Time))

	// Without the hidden field the stored value is fetched first.
	resp, _ = b.post("/posts/1/edit", url.Values{"title": {"Newer"}, "content": {"x"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	p, _ = api.Post(1)
	assert.True(t, orig.CreatedAt.Equal(p.CreatedAt.Time))
}

func TestDeleteMissingPostShowsError(t *testing.T) {
	api, b := setupUI(t)
	ann := api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	api.AddPost(ann.ID, "Kept", "still here")
	b.login("ann@example.com", "pw")

	resp, body := b.post("/posts/99/delete", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Not found. It may have been deleted already.")
	assert.Contains(t, body, "Kept")
}

func TestDeletePost(t *testing.T) {
	api, b := setupUI(t)
	ann := api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	api.AddPost(ann.ID, "Doomed", "bye")
	b.login("ann@example.com", "pw")

	_, body := b.get("/posts/1/delete")
	assert.Contains(t, body, "Doomed")

	resp, _ := b.post("/posts/1/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/posts/manage?notice=post-deleted", resp.Header.Get("Location"))
	_, ok := api.Post(1)
	assert.False(t, ok)
}

func TestRejectedTokenEndsSession(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	b.login("ann@example.com", "pw")

	api.RevokeTokens()

	resp, _ := b.get("/posts")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "notice=session-expired")

	// The cookie was cleared, so the next page goes straight to login.
	resp, _ = b.get("/posts/manage")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.NotContains(t, resp.Header.Get("Location"), "notice=")
}

func TestLogout(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	b.login("ann@example.com", "pw")

	resp, _ := b.get("/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?notice=logged-out", resp.Header.Get("Location"))

	_, body := b.get("/login?notice=logged-out")
	assert.Contains(t, body, "You have been logged out.")

	resp, _ = b.get("/posts")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestUsersCRUD(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleAdmin)
	b.login("ann@example.com", "pw")

	resp, _ := b.post("/users", url.Values{
		"name": {"Cid"}, "email": {"cid@example.com"}, "password": {"pw"}, "role": {"1"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := b.get("/users")
	assert.Contains(t, body, "cid@example.com")

	_, body = b.get("/users/2/edit")
	assert.Contains(t, body, `<option value="1" selected>Admin</option>`)
	assert.NotContains(t, body, `name="password"`)

	resp, _ = b.post("/users/2/edit", url.Values{
		"name": {"Cid B"}, "email": {"cid@example.com"}, "role": {"2"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = b.get("/users")
	assert.Contains(t, body, "Cid B")

	resp, _ = b.post("/users/2/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = b.get("/users")
	assert.NotContains(t, body, "cid@example.com")
}

func TestBadIDIsNotFound(t *testing.T) {
	api, b := setupUI(t)
	api.AddUser("Ann", "ann@example.com", "pw", models.RoleUser)
	b.login("ann@example.com", "pw")

	resp, _ := b.get("/posts/abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/posts"},
		{"/users", "/users"},
		{"/posts?author=2", "/posts?author=2"},
		{"https://evil.example", "/posts"},
		{"//evil.example", "/posts"},
		{`/\evil.example`, "/posts"},
		{"/\t/evil.example", "/posts"},
		{"/\r\n/evil.example", "/posts"},
		{"/\n/evil.example", "/posts"},
		{"/posts\\..\\evil", "/posts"},
		{"/x\x00", "/posts"},
		{"/%zz", "/posts"},
		{"relative", "/posts"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeNext(tt.in), tt.in)
	}
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Not found. It may have been deleted already.",
		errorText(&apiclient.HTTPError{Status: http.StatusNotFound}))
	assert.Equal(t, "The blog API refused the request: email taken",
		errorText(&apiclient.HTTPError{Status: http.StatusConflict, Message: "email taken"}))
	assert.Equal(t, "Cannot reach the blog API. Please try again later.",
		errorText(&apiclient.NetworkError{Method: "GET", URL: "x", Err: io.EOF}))
	assert.True(t, strings.HasPrefix(errorText(io.EOF), "Something went wrong"))
}
