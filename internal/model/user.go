// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account together with its public profile.
//
// GitHub is the identity provider: GitHubID is the stable external key
// (UNIQUE in the users table), ID is our own xid.
//
// The nullable profile fields are pointers. nil means "no value" and is
// stored as NULL; the API never stores an empty string for them.
//
// GitHubURL is provider-derived. Only the reconciler writes it; the
// profile-edit path (ProfileEdit) has no field for it.
type User struct {
	ID          string    `json:"id"          db:"id"`
	GitHubID    int64     `json:"githubId"    db:"github_id"`
	Login       string    `json:"login"       db:"login"`
	Email       string    `json:"email"       db:"email"`
	AvatarURL   string    `json:"avatarUrl"   db:"avatar_url"`
	Name        *string   `json:"name"        db:"name"`
	Bio         *string   `json:"bio"         db:"bio"`
	Location    *string   `json:"location"    db:"location"`
	Website     *string   `json:"website"     db:"website"`
	GitHubURL   *string   `json:"githubUrl"   db:"github_url"`
	LinkedinURL *string   `json:"linkedinUrl" db:"linkedin_url"`
	TwitterURL  *string   `json:"twitterUrl"  db:"twitter_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// SyncedFields is the complete field set the reconciler computes from a
// GitHub snapshot. It is persisted in a single UPDATE.
type SyncedFields struct {
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	Location   *string `json:"location"`
	Website    *string `json:"website"`
	GitHubURL  *string `json:"githubUrl"`
	TwitterURL *string `json:"twitterUrl"`
}

// SyncedFields returns the user's current values for the synced field set.
func (u *User) SyncedFields() SyncedFields {
	return SyncedFields{
		Name:       u.Name,
		Bio:        u.Bio,
		Location:   u.Location,
		Website:    u.Website,
		GitHubURL:  u.GitHubURL,
		TwitterURL: u.TwitterURL,
	}
}

// Equal reports whether both field sets hold the same values.
func (f SyncedFields) Equal(o SyncedFields) bool {
	return eqString(f.Name, o.Name) &&
		eqString(f.Bio, o.Bio) &&
		eqString(f.Location, o.Location) &&
		eqString(f.Website, o.Website) &&
		eqString(f.GitHubURL, o.GitHubURL) &&
		eqString(f.TwitterURL, o.TwitterURL)
}

// ProfileEdit is the user-editable subset of the profile.
//
// Every field is the already-normalized next value: nil clears the column.
// There is deliberately no GitHubURL field.
type ProfileEdit struct {
	Name        *string
	Bio         *string
	Location    *string
	Website     *string
	LinkedinURL *string
	TwitterURL  *string
}

func eqString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
