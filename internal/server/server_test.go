package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/config"
	"github.com/sakif/refactorium/internal/model"
	sqliteRepo "github.com/sakif/refactorium/internal/repository/sqlite"
)

const testSecret = "server-test-secret-0123456789"

type testApp struct {
	srv    *Server
	db     *sqliteRepo.DB
	user   *model.User
	bearer string
}

func newTestApp(t *testing.T, githubURL string) *testApp {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqliteRepo.New(ctx, sqliteRepo.Config{Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.JWTSecret = testSecret
	cfg.CredentialKey = testSecret
	cfg.GitHubAPIURL = githubURL
	cfg.ProviderTimeout = time.Second

	srv, err := NewWithDB(cfg, db, logger)
	require.NoError(t, err)

	user := &model.User{GitHubID: 7, Login: "octocat", AvatarURL: "a"}
	require.NoError(t, db.Upsert(ctx, user))
	require.NoError(t, db.UpsertSmell(ctx, &model.Smell{ID: "long-method", Title: "Long Method", Category: "bloaters", Tags: model.Tags{}}))

	sealer, err := auth.NewSealer(testSecret)
	require.NoError(t, err)
	sealed, err := sealer.Seal([]byte("gho_token"))
	require.NoError(t, err)
	require.NoError(t, db.PutCredential(ctx, user.ID, "github", sealed))

	token, err := srv.tokens.Generate(auth.Identity{UserID: user.ID, Name: "The Octocat"})
	require.NoError(t, err)

	return &testApp{srv: srv, db: db, user: user, bearer: "Bearer " + token}
}

func (a *testApp) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if authed {
		req.Header.Set("Authorization", a.bearer)
	}
	rr := httptest.NewRecorder()
	a.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" || r.Header.Get("Authorization") != "Bearer gho_token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 7,
			"login": "octocat",
			"name": "The Octocat",
			"bio": null,
			"location": "San Francisco",
			"blog": "github.blog",
			"twitter_username": "octo",
			"html_url": "https://github.com/octocat",
			"avatar_url": "https://avatars.example/7"
		}`))
	}))
	t.Cleanup(gh.Close)
	return gh
}

func TestServer_Health(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	rr := app.do(t, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_ProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/api/me", ""},
		{http.MethodGet, "/api/user/profile", ""},
		{http.MethodPut, "/api/user/profile", `{"bio":"x"}`},
		{http.MethodPost, "/api/user/sync-github", ""},
		{http.MethodGet, "/api/user/preferences", ""},
		{http.MethodPut, "/api/user/preferences", `{"theme":"dark"}`},
		{http.MethodGet, "/api/user/favorites", ""},
		{http.MethodPost, "/api/user/favorites", `{"smellId":"long-method","action":"add"}`},
	}

	before, err := app.db.GetUserByID(context.Background(), app.user.ID)
	require.NoError(t, err)

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := app.do(t, rt.method, rt.path, rt.body, false)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	after, err := app.db.GetUserByID(context.Background(), app.user.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	favs, err := app.db.ListFavorites(context.Background(), app.user.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestServer_FavoritesFlow(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")
	add := `{"smellId":"long-method","action":"add"}`

	assert.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/user/favorites", add, true).Code)
	assert.Equal(t, http.StatusConflict, app.do(t, http.MethodPost, "/api/user/favorites", add, true).Code)

	rr := app.do(t, http.MethodGet, "/api/user/favorites", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Favorites []model.FavoriteEntry `json:"favorites"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list.Favorites, 1)
	assert.Equal(t, "Long Method", list.Favorites[0].Smell.Title)

	remove := `{"smellId":"long-method","action":"remove"}`
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/user/favorites", remove, true).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/user/favorites", remove, true).Code)
}

func TestServer_ProfileEditCannotTouchGitHubURL(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	rr := app.do(t, http.MethodPut, "/api/user/profile", `{"githubUrl":"https://github.com/mallory"}`, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	u, err := app.db.GetUserByID(context.Background(), app.user.ID)
	require.NoError(t, err)
	assert.Nil(t, u.GitHubURL)
}

func TestServer_SyncAndFallback(t *testing.T) {
	gh := fakeGitHub(t)
	app := newTestApp(t, gh.URL)

	rr := app.do(t, http.MethodPost, "/api/user/sync-github", "", true)
	require.Equal(t, http.StatusOK, rr.Code)

	var synced struct {
		User    model.User `json:"user"`
		Outcome string     `json:"outcome"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&synced))
	assert.Equal(t, "synced", synced.Outcome)
	require.NotNil(t, synced.User.Website)
	assert.Equal(t, "https://github.blog", *synced.User.Website)
	require.NotNil(t, synced.User.GitHubURL)
	assert.Equal(t, "https://github.com/octocat", *synced.User.GitHubURL)

	stored, err := app.db.GetUserByID(context.Background(), app.user.ID)
	require.NoError(t, err)

	gh.Close()

	rr = app.do(t, http.MethodPost, "/api/user/sync-github", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var fallback struct {
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&fallback))
	assert.Equal(t, "fell_back_to_local", fallback.Outcome)

	after, err := app.db.GetUserByID(context.Background(), app.user.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, after)
}

func TestServer_OAuthRoutesDisabledWithoutCredentials(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")

	rr := app.do(t, http.MethodGet, "/auth/github/login", "", false)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
