//go:generate mockgen -source ${GOFILE} -destination mock/${GOFILE} -package mock -mock_names "IdentityProvider=IdentityProvider"
package service

import (
	"context"

	"github.com/sakif/refactorium/internal/identity"
)

// githubProvider is the provider key under which the GitHub access token is stored.
const githubProvider = "github"

// IdentityProvider fetches the caller's external profile.
// *identity.GitHubClient is the production implementation.
type IdentityProvider interface {
	FetchProfile(ctx context.Context, accessToken string) (*identity.Snapshot, error)
}
