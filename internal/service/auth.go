// Package service holds the business rules between the HTTP handlers and the
// repositories:
//
//	Handler (HTTP) → Service (business rules) → Repository (DB)
//	                         ↘ IdentityProvider (GitHub)
//
// Services never read requests or set cookies. Every operation that acts on
// behalf of a user takes the verified user ID (or auth.Identity) and rejects
// an empty one with apperror.Unauthenticated before touching storage.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/repository"
)

// AuthService orchestrates the GitHub OAuth callback.
type AuthService struct {
	users    repository.UserRepository
	prefs    repository.PreferencesRepository
	creds    repository.CredentialRepository
	identity IdentityProvider
	tokens   *auth.TokenService
	sealer   *auth.Sealer
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	prefs repository.PreferencesRepository,
	creds repository.CredentialRepository,
	identity IdentityProvider,
	tokens *auth.TokenService,
	sealer *auth.Sealer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		prefs:    prefs,
		creds:    creds,
		identity: identity,
		tokens:   tokens,
		sealer:   sealer,
		logger:   logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub completes a login with the access token obtained from
// the OAuth code exchange:
//
//  1. Fetch the GitHub profile with the token
//  2. Upsert the user on github_id (first login inserts, later logins refresh
//     login, email and avatar and leave the edited profile alone)
//  3. Make sure a preferences row exists
//  4. Store the sealed access token; profile syncs read it back
//  5. Issue the session JWT
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, accessToken string) (*AuthResult, error) {
	snap, err := s.identity.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching GitHub profile: %w", err)
	}
	if snap.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub returned an invalid user (ID = 0)")
	}

	user := &model.User{
		GitHubID:  snap.ID,
		Login:     snap.Login,
		AvatarURL: snap.AvatarURL,
		Name:      snap.Name,
	}
	if snap.Email != nil {
		user.Email = *snap.Email
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", snap.ID, err)
	}

	if err := s.prefs.EnsurePreferences(ctx, model.DefaultPreferences(user.ID)); err != nil {
		return nil, fmt.Errorf("service/auth: creating preferences for %s: %w", user.ID, err)
	}

	sealed, err := s.sealer.Seal([]byte(accessToken))
	if err != nil {
		return nil, fmt.Errorf("service/auth: sealing access token: %w", err)
	}
	if err := s.creds.PutCredential(ctx, user.ID, githubProvider, sealed); err != nil {
		return nil, fmt.Errorf("service/auth: storing access token for %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	token, err := s.tokens.Generate(auth.Identity{UserID: user.ID, Name: displayName(user)})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// displayName is the name carried in the session. Empty when the profile has none.
func displayName(u *model.User) string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}
