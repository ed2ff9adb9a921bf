// Package reconcile merges a GitHub identity snapshot into a stored profile.
//
// Reconcile is pure: it reads the current profile and the fetch result and
// returns what should be persisted. It never writes and never fails. A failed
// fetch is an outcome (FellBackToLocal), not an error.
package reconcile

import (
	"strings"

	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/identity"
	"github.com/sakif/refactorium/internal/model"
)

// Outcome says which branch a sync took.
type Outcome string

const (
	Synced          Outcome = "synced"
	FellBackToLocal Outcome = "fell_back_to_local"
)

// Result is the reconciler's decision.
//
// For Synced, Update is the complete next state of the synced field set.
// For FellBackToLocal, Update re-affirms the current values and Reason holds
// the identity failure kind.
type Result struct {
	Outcome Outcome            `json:"outcome"`
	Update  model.SyncedFields `json:"update"`
	Reason  identity.Kind      `json:"reason,omitempty"`
}

// Changed reports whether persisting Update would modify current.
func (r Result) Changed(current model.User) bool {
	return r.Outcome == Synced && !r.Update.Equal(current.SyncedFields())
}

// Reconcile computes the next synced field set for current.
//
// fetchErr is the error returned by the identity client; when it is non-nil
// snap is ignored. Field precedence with a snapshot:
//
//	name        snapshot name, else session name, else unchanged
//	bio         snapshot value or nil
//	location    snapshot value or nil
//	website     snapshot blog with https:// added when it has no scheme, or nil
//	github_url  snapshot html_url or nil
//	twitter_url https://twitter.com/<handle> or nil
func Reconcile(current model.User, session auth.Identity, snap *identity.Snapshot, fetchErr error) Result {
	if fetchErr != nil || snap == nil {
		reason := identity.KindOf(fetchErr)
		if reason == "" {
			reason = identity.ProviderUnreachable
		}
		return Result{
			Outcome: FellBackToLocal,
			Update:  current.SyncedFields(),
			Reason:  reason,
		}
	}

	return Result{
		Outcome: Synced,
		Update: model.SyncedFields{
			Name:       pickName(snap.Name, session.Name, current.Name),
			Bio:        nonEmpty(snap.Bio),
			Location:   nonEmpty(snap.Location),
			Website:    WebsiteURL(snap.Blog),
			GitHubURL:  nonEmpty(snap.HTMLURL),
			TwitterURL: TwitterURL(snap.TwitterUsername),
		},
	}
}

func pickName(snapName *string, sessionName string, current *string) *string {
	if v := nonEmpty(snapName); v != nil {
		return v
	}
	if s := strings.TrimSpace(sessionName); s != "" {
		return &s
	}
	return current
}

// WebsiteURL turns a GitHub "blog" value into a URL. Bare hosts get https://.
func WebsiteURL(blog *string) *string {
	b := nonEmpty(blog)
	if b == nil {
		return nil
	}
	lower := strings.ToLower(*b)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return b
	}
	u := "https://" + *b
	return &u
}

// TwitterURL composes the profile URL for a Twitter/X handle.
func TwitterURL(handle *string) *string {
	h := nonEmpty(handle)
	if h == nil {
		return nil
	}
	trimmed := strings.TrimPrefix(*h, "@")
	if trimmed == "" {
		return nil
	}
	u := "https://twitter.com/" + trimmed
	return &u
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
