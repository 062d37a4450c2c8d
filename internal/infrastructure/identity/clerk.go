// Package identity adapts the external identity provider (Clerk) to the
// ports.IdentityProvider capability.
//
// The provider's SDK owns sign-in; this adapter only sees the session token it
// leaves behind, either passed directly or written to a file that the SDK
// keeps refreshed.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/editais-pncp/portal-client/internal/core/ports"
)

var _ ports.IdentityProvider = (*ClerkProvider)(nil)

const defaultLeeway = 5 * time.Second

// Config selects where the session token comes from.
type Config struct {
	// Token is a static session token.
	Token string
	// TokenFile is re-read on every Token call so rotated tokens are picked up.
	// It takes precedence over Token.
	TokenFile string
	// Leeway tolerates small clock skew when checking expiry.
	Leeway time.Duration
}

// Claims are the identity claims carried by a Clerk session token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ClerkProvider implements ports.IdentityProvider over a Clerk session token.
type ClerkProvider struct {
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
	parser *jwt.Parser

	mu     sync.RWMutex
	loaded bool
	token  string
	claims *Claims
}

// Option customises a ClerkProvider.
type Option func(*ClerkProvider)

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(p *ClerkProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewClerkProvider returns an unloaded provider; call Load before use.
func NewClerkProvider(cfg Config, log zerolog.Logger, opts ...Option) *ClerkProvider {
	if cfg.Leeway <= 0 {
		cfg.Leeway = defaultLeeway
	}
	p := &ClerkProvider{
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		parser: jwt.NewParser(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load reads the token source. A missing token file means signed out.
func (p *ClerkProvider) Load(_ context.Context) error {
	token, err := p.readToken()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = true
	p.setToken(token)
	return nil
}

// IsLoaded implements ports.IdentityProvider.
func (p *ClerkProvider) IsLoaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// IsSignedIn implements ports.IdentityProvider. A token whose expiry has passed
// does not count.
func (p *ClerkProvider) IsSignedIn() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.signedInLocked()
}

// Token implements ports.IdentityProvider. It returns "" when signed out.
func (p *ClerkProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.cfg.TokenFile != "" {
		if err := p.Load(ctx); err != nil {
			return "", err
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.signedInLocked() {
		return "", nil
	}
	return p.token, nil
}

// Claims returns the parsed claims of the current token, or nil.
func (p *ClerkProvider) Claims() *Claims {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.claims == nil {
		return nil
	}
	c := *p.claims
	return &c
}

func (p *ClerkProvider) readToken() (string, error) {
	if p.cfg.TokenFile == "" {
		return strings.TrimSpace(p.cfg.Token), nil
	}
	raw, err := os.ReadFile(p.cfg.TokenFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// setToken must be called with mu held.
func (p *ClerkProvider) setToken(token string) {
	if token == p.token && (token == "" || p.claims != nil) {
		return
	}
	p.token = token
	p.claims = nil
	if token == "" {
		return
	}

	claims := &Claims{}
	if _, _, err := p.parser.ParseUnverified(token, claims); err != nil {
		// Opaque tokens are still forwarded; the backend decides.
		p.log.Debug().Err(err).Msg("session token is not a readable JWT")
		return
	}
	p.claims = claims
}

func (p *ClerkProvider) signedInLocked() bool {
	if !p.loaded || p.token == "" {
		return false
	}
	if p.claims == nil || p.claims.ExpiresAt == nil {
		return true
	}
	return p.now().Before(p.claims.ExpiresAt.Add(p.cfg.Leeway))
}
