package ports

import (
	"context"

	"github.com/editais-pncp/portal-client/internal/core/domain"
)

// SessionManager resolves and owns the operator's AuthSession.
type SessionManager interface {
	// Start runs the start-up resolution.
	Start(ctx context.Context) error
	// Refresh re-resolves the session. It returns nil when authenticated,
	// domain.ErrUnauthenticated when resolved as signed out, and the underlying
	// *domain.APIError when resolution could not complete.
	Refresh(ctx context.Context) error
	Login(ctx context.Context, creds domain.Credentials) error
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg domain.Registration) error
	// Session returns a snapshot of the cached state.
	Session() domain.AuthSession
}

// Refresher is the subset of SessionManager needed after server-side state changes.
type Refresher interface {
	Refresh(ctx context.Context) error
}
