package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Smell is a catalog item: one code smell with its teaching material.
// The catalog is maintained by the seed command; the profile core only reads
// the SmellSummary projection.
type Smell struct {
	ID          string    `json:"id"          yaml:"id"          db:"id"`
	Title       string    `json:"title"       yaml:"title"       db:"title"`
	Category    string    `json:"category"    yaml:"category"    db:"category"`
	Description string    `json:"description" yaml:"description" db:"description"`
	Difficulty  string    `json:"difficulty"  yaml:"difficulty"  db:"difficulty"`
	Tags        Tags      `json:"tags"        yaml:"tags"        db:"tags"`
	BadExample  string    `json:"badExample"  yaml:"bad_example" db:"bad_example"`
	GoodExample string    `json:"goodExample" yaml:"good_example" db:"good_example"`
	CreatedAt   time.Time `json:"createdAt"   yaml:"-"           db:"created_at"`
}

// SmellSummary is the display projection of a Smell used in favorites.
type SmellSummary struct {
	ID          string `json:"id"          db:"id"`
	Title       string `json:"title"       db:"title"`
	Category    string `json:"category"    db:"category"`
	Description string `json:"description" db:"description"`
	Difficulty  string `json:"difficulty"  db:"difficulty"`
	Tags        Tags   `json:"tags"        db:"tags"`
}

// Tags is stored as a JSON array in a TEXT column.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("model: encoding tags: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("model: cannot scan %T into Tags", src)
	}

	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}

	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("model: decoding tags: %w", err)
	}
	*t = tags
	return nil
}
