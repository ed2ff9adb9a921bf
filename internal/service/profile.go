package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/identity"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/reconcile"
	"github.com/sakif/refactorium/internal/repository"
)

// Field limits, in runes.
const (
	maxNameLen     = 100
	maxBioLen      = 500
	maxLocationLen = 100
	maxURLLen      = 255
)

// ProfileService reads, edits and syncs user profiles.
type ProfileService struct {
	users    repository.UserRepository
	prefs    repository.PreferencesRepository
	creds    repository.CredentialRepository
	identity IdentityProvider
	sealer   *auth.Sealer
	logger   *slog.Logger
}

func NewProfileService(
	users repository.UserRepository,
	prefs repository.PreferencesRepository,
	creds repository.CredentialRepository,
	identity IdentityProvider,
	sealer *auth.Sealer,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		users:    users,
		prefs:    prefs,
		creds:    creds,
		identity: identity,
		sealer:   sealer,
		logger:   logger,
	}
}

// Profile is the user record together with its preferences.
type Profile struct {
	User        *model.User        `json:"user"`
	Preferences *model.Preferences `json:"preferences"`
}

// ProfileInput is a partial profile edit. A nil field is left as stored; an
// empty string clears the field. There is no way to express github_url here.
type ProfileInput struct {
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
	LinkedinURL *string `json:"linkedinUrl"`
	TwitterURL  *string `json:"twitterUrl"`
}

// SyncResult is what a profile sync reports back.
type SyncResult struct {
	User    *model.User       `json:"user"`
	Message string            `json:"message"`
	Outcome reconcile.Outcome `json:"outcome"`
}

// Get returns the profile and preferences. A user without a preferences row
// gets the defaults.
func (s *ProfileService) Get(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching user %s: %w", userID, err)
	}

	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("service/profile: fetching preferences for %s: %w", userID, err)
		}
		prefs = model.DefaultPreferences(userID)
	}

	return &Profile{User: user, Preferences: prefs}, nil
}

// Update applies a user-initiated edit. It never calls the identity provider
// and never writes github_url.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}

	current, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching user %s: %w", userID, err)
	}

	edit := model.ProfileEdit{
		Name:        merge(in.Name, current.Name),
		Bio:         merge(in.Bio, current.Bio),
		Location:    merge(in.Location, current.Location),
		Website:     merge(in.Website, current.Website),
		LinkedinURL: merge(in.LinkedinURL, current.LinkedinURL),
		TwitterURL:  merge(in.TwitterURL, current.TwitterURL),
	}
	// Bare hosts are accepted for the website, same as a synced blog value.
	if in.Website != nil && edit.Website != nil && !strings.Contains(*edit.Website, "://") {
		edit.Website = reconcile.WebsiteURL(edit.Website)
	}

	if problems := validateEdit(in, edit); len(problems) > 0 {
		return nil, apperror.InvalidFields(problems)
	}

	updated, err := s.users.UpdateProfile(ctx, userID, edit)
	if err != nil {
		return nil, fmt.Errorf("service/profile: updating user %s: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return updated, nil
}

// Sync refreshes the profile from GitHub.
//
// Identity failures never fail the sync: the stored profile is kept as is,
// nothing is written and the fallback is logged. When GitHub has nothing new
// the write is skipped too, so repeated syncs leave the record untouched.
// The GitHub call runs detached from ctx cancellation and is bounded only
// by the identity client timeout.
func (s *ProfileService) Sync(ctx context.Context, session auth.Identity) (*SyncResult, error) {
	if session.UserID == "" {
		return nil, apperror.Unauthenticated()
	}

	current, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching user %s: %w", session.UserID, err)
	}

	token, fetchErr := s.accessToken(ctx, session.UserID)
	if fetchErr != nil && identity.KindOf(fetchErr) == "" {
		// A storage failure while loading the credential is not an identity failure.
		return nil, fmt.Errorf("service/profile: loading credential for %s: %w", session.UserID, fetchErr)
	}

	var snap *identity.Snapshot
	if fetchErr == nil {
		snap, fetchErr = s.identity.FetchProfile(context.WithoutCancel(ctx), token)
	}

	res := reconcile.Reconcile(*current, session, snap, fetchErr)

	switch {
	case res.Outcome == reconcile.FellBackToLocal:
		s.logger.Warn("github sync fell back to local profile",
			slog.String("userID", session.UserID),
			slog.String("reason", string(res.Reason)),
			slog.Any("error", fetchErr),
		)
		return &SyncResult{User: current, Message: "GitHub is unavailable, your saved profile was kept", Outcome: res.Outcome}, nil

	case res.Changed(*current):
		current, err = s.users.ApplySync(ctx, session.UserID, res.Update)
		if err != nil {
			return nil, fmt.Errorf("service/profile: applying sync to %s: %w", session.UserID, err)
		}
		s.logger.Info("profile synced from GitHub", slog.String("userID", session.UserID))
	}

	return &SyncResult{User: current, Message: "Profile synced with GitHub", Outcome: res.Outcome}, nil
}

// accessToken loads and unseals the stored GitHub token. A missing or
// unreadable credential is reported as identity.CredentialMissing.
func (s *ProfileService) accessToken(ctx context.Context, userID string) (string, error) {
	sealed, err := s.creds.GetCredential(ctx, userID, githubProvider)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", &identity.Error{Kind: identity.CredentialMissing, Err: err}
		}
		return "", err
	}

	token, err := s.sealer.Open(sealed)
	if err != nil {
		return "", &identity.Error{Kind: identity.CredentialMissing, Err: err}
	}
	return string(token), nil
}

// PreferencesInput is a partial preferences edit; nil fields stay as stored.
type PreferencesInput struct {
	Theme              *string `json:"theme"`
	PreferredLanguage  *string `json:"preferredLanguage"`
	EmailNotifications *bool   `json:"emailNotifications"`
}

// GetPreferences returns the stored preferences or the defaults.
func (s *ProfileService) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}

	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.DefaultPreferences(userID), nil
		}
		return nil, fmt.Errorf("service/profile: fetching preferences for %s: %w", userID, err)
	}
	return prefs, nil
}

// UpdatePreferences validates and stores a preferences edit.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, in PreferencesInput) (*model.Preferences, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	problems := map[string]string{}

	if in.Theme != nil {
		switch theme := strings.ToLower(strings.TrimSpace(*in.Theme)); theme {
		case model.ThemeSystem, model.ThemeLight, model.ThemeDark:
			prefs.Theme = theme
		default:
			problems["theme"] = "theme must be one of system, light, dark"
		}
	}

	if in.PreferredLanguage != nil {
		tag, err := language.Parse(strings.TrimSpace(*in.PreferredLanguage))
		if err != nil {
			problems["preferredLanguage"] = "preferredLanguage must be a BCP 47 language tag"
		} else {
			prefs.PreferredLanguage = tag.String()
		}
	}

	if in.EmailNotifications != nil {
		prefs.EmailNotifications = *in.EmailNotifications
	}

	if len(problems) > 0 {
		return nil, apperror.InvalidFields(problems)
	}

	if err := s.prefs.SavePreferences(ctx, prefs); err != nil {
		return nil, fmt.Errorf("service/profile: saving preferences for %s: %w", userID, err)
	}
	return prefs, nil
}

// merge picks the next value of one optional field: the normalized input when
// the field was sent, the stored value otherwise.
func merge(in, stored *string) *string {
	if in == nil {
		return stored
	}
	return normalizeOptional(*in)
}

// normalizeOptional is the single normalization step for optional text input:
// trim, Unicode NFC, and "" means no value.
func normalizeOptional(v string) *string {
	v = norm.NFC.String(strings.TrimSpace(v))
	if v == "" {
		return nil
	}
	return &v
}

// validateEdit checks the fields that were sent. Stored values written by a
// sync are not re-validated.
func validateEdit(in ProfileInput, e model.ProfileEdit) map[string]string {
	problems := map[string]string{}

	checkLen := func(field string, sent, v *string, limit int) {
		if sent != nil && v != nil && utf8.RuneCountInString(*v) > limit {
			problems[field] = fmt.Sprintf("%s must be at most %d characters", field, limit)
		}
	}
	checkURL := func(field string, sent, v *string) {
		if sent == nil || v == nil {
			return
		}
		if utf8.RuneCountInString(*v) > maxURLLen {
			problems[field] = fmt.Sprintf("%s must be at most %d characters", field, maxURLLen)
			return
		}
		if !isWebURL(*v) {
			problems[field] = fmt.Sprintf("%s must be a valid http(s) URL", field)
		}
	}

	checkLen("name", in.Name, e.Name, maxNameLen)
	checkLen("bio", in.Bio, e.Bio, maxBioLen)
	checkLen("location", in.Location, e.Location, maxLocationLen)
	checkURL("website", in.Website, e.Website)
	checkURL("linkedinUrl", in.LinkedinURL, e.LinkedinURL)
	checkURL("twitterUrl", in.TwitterURL, e.TwitterURL)

	return problems
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && !strings.ContainsAny(u.Host, " \t")
}
