package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func withSession(r *http.Request, userID string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: userID, Name: "The Octocat"}))
}

func strPtr(s string) *string { return &s }

// stubProfiles records what the handler passed in and returns canned values.
type stubProfiles struct {
	calls int

	gotUserID  string
	gotSession auth.Identity
	gotInput   service.ProfileInput
	gotPrefs   service.PreferencesInput

	profile *service.Profile
	user    *model.User
	sync    *service.SyncResult
	prefs   *model.Preferences
	err     error
}

func (s *stubProfiles) Get(_ context.Context, userID string) (*service.Profile, error) {
	s.calls++
	s.gotUserID = userID
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}
	return s.profile, s.err
}

func (s *stubProfiles) Update(_ context.Context, userID string, in service.ProfileInput) (*model.User, error) {
	s.calls++
	s.gotUserID = userID
	s.gotInput = in
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}
	return s.user, s.err
}

func (s *stubProfiles) Sync(_ context.Context, session auth.Identity) (*service.SyncResult, error) {
	s.calls++
	s.gotSession = session
	if session.UserID == "" {
		return nil, apperror.Unauthenticated()
	}
	return s.sync, s.err
}

func (s *stubProfiles) GetPreferences(_ context.Context, userID string) (*model.Preferences, error) {
	s.calls++
	s.gotUserID = userID
	return s.prefs, s.err
}

func (s *stubProfiles) UpdatePreferences(_ context.Context, userID string, in service.PreferencesInput) (*model.Preferences, error) {
	s.calls++
	s.gotUserID = userID
	s.gotPrefs = in
	return s.prefs, s.err
}

type stubFavorites struct {
	calls int

	gotUserID  string
	gotSmellID string
	gotAction  model.FavoriteAction

	entries []model.FavoriteEntry
	toggle  *service.ToggleResult
	err     error
}

func (s *stubFavorites) List(_ context.Context, userID string) ([]model.FavoriteEntry, error) {
	s.calls++
	s.gotUserID = userID
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}
	return s.entries, s.err
}

func (s *stubFavorites) Toggle(_ context.Context, userID, smellID string, action model.FavoriteAction) (*service.ToggleResult, error) {
	s.calls++
	s.gotUserID = userID
	s.gotSmellID = smellID
	s.gotAction = action
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}
	return s.toggle, s.err
}

type stubOAuth struct {
	gotCode string
	token   *oauth2.Token
	err     error
}

func (s *stubOAuth) AuthURL(state string) string {
	return "https://github.example/login/oauth/authorize?state=" + state
}

func (s *stubOAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	s.gotCode = code
	return s.token, s.err
}

type stubAuthenticator struct {
	gotToken string
	result   *service.AuthResult
	err      error
}

func (s *stubAuthenticator) LoginOrRegisterGitHub(_ context.Context, accessToken string) (*service.AuthResult, error) {
	s.gotToken = accessToken
	return s.result, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
