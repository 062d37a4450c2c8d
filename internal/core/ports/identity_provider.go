package ports

import "context"

// IdentityProvider is the narrow capability the session manager needs from the
// external identity provider.
type IdentityProvider interface {
	// Token returns the current session token, or "" when none is available.
	Token(ctx context.Context) (string, error)
	IsSignedIn() bool
	IsLoaded() bool
}
