package blog

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/apitest"
	"github.com/blogster/blogster-client/internal/models"
	"github.com/blogster/blogster-client/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*apitest.API, *session.Store, *Service) {
	t.Helper()
	api := apitest.NewServer(t)
	store := session.NewStore(session.NewMemoryBackend(), nil)
	svc := New(apiclient.New(api.URL, store))
	return api, store, svc
}

func TestLogin_StoresSession(t *testing.T) {
	api, store, svc := setup(t)
	ana := api.AddUser("Ana", "ana@example.com", "secret", models.RoleUser)
	ctx := context.Background()

	sess, err := svc.Auth.Login(ctx, store, Credentials{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, sess.ID)
	assert.Equal(t, "Ana", sess.Name)
	assert.Equal(t, models.RoleUser, sess.Role)
	assert.NotEmpty(t, sess.Token)

	current, ok := store.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, sess, current)
}

func TestLogin_FailureLeavesStoreUntouched(t *testing.T) {
	api, store, svc := setup(t)
	api.AddUser("Ana", "ana@example.com", "secret", models.RoleUser)
	ctx := context.Background()

	prior := session.Session{ID: 9, Name: "Prior", Token: "prior-token"}
	require.NoError(t, store.Login(ctx, prior))

	_, err := svc.Auth.Login(ctx, store, Credentials{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))

	current, ok := store.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, prior, current)
}

func TestLogin_FlatResponseAndMissingToken(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantID  int
	}{
		{"flat", `{"id":4,"name":"Flat","email":"f@example.com","role":1,"token":"t"}`, nil, 4},
		{"no token", `{"id":4,"name":"Flat"}`, ErrNoToken, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newStaticServer(t, tt.body)
			store := session.NewStore(session.NewMemoryBackend(), nil)
			svc := New(apiclient.New(srv, store), WithLoginPath("/api/login"))

			sess, err := svc.Auth.Login(context.Background(), store, Credentials{Email: "f@example.com", Password: "x"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, ok := store.Current(context.Background())
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, sess.ID)
			assert.True(t, sess.Role.IsAdmin())
		})
	}
}

func TestLogin_ValidatesBeforeCalling(t *testing.T) {
	api, store, svc := setup(t)

	_, err := svc.Auth.Login(context.Background(), store, Credentials{Email: "not-an-email"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a valid email", verr.Fields["email"])
	assert.Equal(t, "is required", verr.Fields["password"])
	assert.Empty(t, api.Requests())
}

func TestRegister_CreatesUserWithoutRole(t *testing.T) {
	api, _, svc := setup(t)

	user, err := svc.Auth.Register(context.Background(), Registration{Name: "Bia", Email: "bia@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/User/CreateUser", reqs[0].Path)
	assert.Empty(t, reqs[0].Authorization)
}

// Login as Ana, create a post, and the author listing shows it.
func TestScenario_CreateThenList(t *testing.T) {
	api, store, svc := setup(t)
	api.AddUser("Ana", "ana@example.com", "secret", models.RoleUser)
	ctx := context.Background()

	sess, err := svc.Auth.Login(ctx, store, Credentials{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, 1, sess.ID)

	created, err := svc.Posts.Create(ctx, models.CreatePost{Title: "Hi", Content: "World", UserID: sess.ID})
	require.NoError(t, err)

	posts, err := svc.Posts.ListByAuthor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, created.ID, posts[0].ID)
	assert.Equal(t, "Hi", posts[0].Title)
	assert.Equal(t, "World", posts[0].Content)

	for _, r := range api.Requests()[1:] {
		assert.Equal(t, "Bearer "+sess.Token, r.Authorization, "%s %s", r.Method, r.Path)
	}
}

func TestScenario_DeleteMissingPost(t *testing.T) {
	api, store, svc := setup(t)
	ana := api.AddUser("Ana", "ana@example.com", "secret", models.RoleUser)
	api.AddPost(ana.ID, "Kept", "still here")
	ctx := context.Background()
	require.NoError(t, store.Login(ctx, session.Session{ID: ana.ID, Name: "Ana", Token: api.IssueToken(ana.ID)}))

	before, err := svc.Posts.ListByAuthor(ctx, ana.ID)
	require.NoError(t, err)

	err = svc.Posts.Delete(ctx, 42)
	var httpErr *apiclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)

	after, err := svc.Posts.ListByAuthor(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// Two overlapping updates: whichever the server handles last wins, even if
// it was issued first. The client does not sequence them.
func TestScenario_RacingUpdatesLastResponseWins(t *testing.T) {
	api, store, svc := setup(t)
	ana := api.AddUser("Ana", "ana@example.com", "secret", models.RoleUser)
	post := api.AddPost(ana.ID, "Draft", "v0")
	ctx := context.Background()
	require.NoError(t, store.Login(ctx, session.Session{ID: ana.ID, Token: api.IssueToken(ana.ID)}))

	firstArrived := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	api.BeforeHandle = func(r *http.Request) {
		if r.Method != http.MethodPut {
			return
		}
		held := false
		once.Do(func() { held = true })
		if held {
			close(firstArrived)
			<-release
		}
	}

	update := func(content string) models.UpdatePost {
		return models.UpdatePost{ID: post.ID, Title: "Draft", Content: content, UserID: ana.ID, CreatedAt: post.CreatedAt}
	}

	var wg sync.WaitGroup
	var firstResp models.Post
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		firstResp, err = svc.Posts.Update(ctx, update("first"))
		assert.NoError(t, err)
	}()
	<-firstArrived

	secondResp, err := svc.Posts.Update(ctx, update("second"))
	require.NoError(t, err)
	assert.Equal(t, "second", secondResp.Content)

	close(release)
	wg.Wait()
	assert.Equal(t, "first", firstResp.Content)

	got, err := svc.Posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Content, "the update issued first but answered last is what sticks")
}

func TestPosts_ListNewestFirst(t *testing.T) {
	api, store, svc := setup(t)
	ana := api.AddUser("Ana", "ana@example.com", "secret", models.RoleUser)
	api.AddPost(ana.ID, "old", "a")
	api.AddPost(ana.ID, "mid", "b")
	api.AddPost(ana.ID, "new", "c")
	ctx := context.Background()
	require.NoError(t, store.Login(ctx, session.Session{ID: ana.ID, Token: api.IssueToken(ana.ID)}))

	posts, err := svc.Posts.ListByAuthor(ctx, ana.ID)
	require.NoError(t, err)
	titles := make([]string, 0, len(posts))
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, titles)
}

func TestPosts_CreateRequiresFields(t *testing.T) {
	api, _, svc := setup(t)

	_, err := svc.Posts.Create(context.Background(), models.CreatePost{Title: "  ", UserID: 1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "content")
	assert.True(t, strings.HasPrefix(err.Error(), "validation failed:"))
	assert.Empty(t, api.Requests())
}

func TestUsers_CRUD(t *testing.T) {
	api, store, svc := setup(t)
	admin := api.AddUser("Root", "root@example.com", "pw", models.RoleAdmin)
	ctx := context.Background()
	require.NoError(t, store.Login(ctx, session.Session{ID: admin.ID, Role: models.RoleAdmin, Token: api.IssueToken(admin.ID)}))

	role := models.RoleAdmin
	created, err := svc.Users.Create(ctx, models.CreateUser{Name: "Caio", Email: "caio@example.com", Password: "pw", Role: &role})
	require.NoError(t, err)
	assert.True(t, created.Role.IsAdmin())

	updated, err := svc.Users.Update(ctx, models.UpdateUser{ID: created.ID, Name: "Caio S.", Email: "caio@example.com", Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "Caio S.", updated.Name)
	assert.False(t, updated.Role.IsAdmin())

	got, err := svc.Users.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	list, err := svc.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Users.Delete(ctx, created.ID))
	_, err = svc.Users.Get(ctx, created.ID)
	assert.True(t, apiclient.IsStatus(err, http.StatusNotFound))
}

func TestUsers_UnauthenticatedCallsAreRejected(t *testing.T) {
	api, _, svc := setup(t)
	api.AddUser("Ana", "ana@example.com", "secret", models.RoleUser)

	_, err := svc.Users.List(context.Background())
	assert.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, api.Requests()[0].Authorization)
}
