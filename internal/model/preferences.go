package model

import "time"

// Theme values accepted for Preferences.Theme.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// Preferences holds per-user settings. One row per user, keyed by the user ID.
type Preferences struct {
	UserID             string    `json:"-"                  db:"user_id"`
	Theme              string    `json:"theme"              db:"theme"`
	PreferredLanguage  string    `json:"preferredLanguage"  db:"preferred_language"`
	EmailNotifications bool      `json:"emailNotifications" db:"email_notifications"`
	UpdatedAt          time.Time `json:"updatedAt"          db:"updated_at"`
}

// DefaultPreferences returns the settings a new account starts with.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:             userID,
		Theme:              ThemeSystem,
		PreferredLanguage:  "en",
		EmailNotifications: true,
	}
}
