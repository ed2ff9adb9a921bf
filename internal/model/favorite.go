package model

import "time"

// Favorite is one user -> smell edge. The (UserID, SmellID) pair is unique.
type Favorite struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	SmellID   string    `json:"smellId"   db:"smell_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// FavoriteEntry is a favorite edge enriched with the smell's display projection.
type FavoriteEntry struct {
	Favorite Favorite     `json:"favorite"`
	Smell    SmellSummary `json:"smell"`
	AddedAt  time.Time    `json:"addedAt"`
}

// FavoriteAction is the verb of a toggle request.
type FavoriteAction string

const (
	FavoriteAdd    FavoriteAction = "add"
	FavoriteRemove FavoriteAction = "remove"
)
