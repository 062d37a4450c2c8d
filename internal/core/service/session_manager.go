package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/ports"
	"github.com/editais-pncp/portal-client/internal/core/validation"
	"github.com/editais-pncp/portal-client/internal/infrastructure/metrics"
)

// ErrSuperseded is returned by Refresh when its response arrived after a newer
// resolution (or a logout) had already been applied, or after its context was
// cancelled. The cached session was left untouched.
var ErrSuperseded = errors.New("session resolution superseded")

var errIdentityUnavailable = errors.New("identity provider not loaded")

// Paths are the backend endpoints used by the session manager.
type Paths struct {
	Status           string
	Login            string
	Logout           string
	Register         string
	IdentityStatus   string
	IdentityRegister string
}

// DefaultPaths returns the portal's endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Status:           "/api/status",
		Login:            "/login",
		Logout:           "/logout",
		Register:         "/users/new",
		IdentityStatus:   "/api/clerk/status",
		IdentityRegister: "/api/clerk/register",
	}
}

// FormValidator validates login and registration forms.
type FormValidator interface {
	Validate(i any) error
}

// SessionOption customises a SessionManager.
type SessionOption func(*SessionManager)

// WithPaths overrides the backend endpoints. Empty fields keep their default.
func WithPaths(p Paths) SessionOption {
	return func(s *SessionManager) {
		def := s.paths
		if p.Status != "" {
			def.Status = p.Status
		}
		if p.Login != "" {
			def.Login = p.Login
		}
		if p.Logout != "" {
			def.Logout = p.Logout
		}
		if p.Register != "" {
			def.Register = p.Register
		}
		if p.IdentityStatus != "" {
			def.IdentityStatus = p.IdentityStatus
		}
		if p.IdentityRegister != "" {
			def.IdentityRegister = p.IdentityRegister
		}
		s.paths = def
	}
}

// WithValidator replaces the form validator.
func WithValidator(v FormValidator) SessionOption {
	return func(s *SessionManager) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionManager) {
		if now != nil {
			s.now = now
		}
	}
}

// SessionManager resolves the operator's session against the first-party
// backend, falling back to the external identity provider when the backend
// answers 401. It is the only writer of the AuthSession it holds.
//
// Every resolution takes a sequence number. A response is applied only when no
// newer resolution has been applied and its context is still live, so
// overlapping refreshes cannot overwrite newer state with a stale answer.
type SessionManager struct {
	client    ports.HTTPClient
	idp       ports.IdentityProvider
	validator FormValidator
	paths     Paths
	log       zerolog.Logger
	now       func() time.Time

	mu         sync.Mutex
	session    domain.AuthSession
	issued     uint64
	applied    uint64
	registered map[string]bool
}

var _ ports.SessionManager = (*SessionManager)(nil)

// NewSessionManager returns a manager in the loading state. idp may be nil when
// no external identity provider is configured.
func NewSessionManager(client ports.HTTPClient, idp ports.IdentityProvider, log zerolog.Logger, opts ...SessionOption) *SessionManager {
	s := &SessionManager{
		client:     client,
		idp:        idp,
		validator:  validation.New(),
		paths:      DefaultPaths(),
		log:        log,
		now:        time.Now,
		session:    domain.AuthSession{Status: domain.StatusLoading},
		registered: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns a snapshot of the cached state.
func (s *SessionManager) Session() domain.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Start runs the start-up resolution. Resolving to signed out is not an error.
func (s *SessionManager) Start(ctx context.Context) error {
	err := s.Refresh(ctx)
	if errors.Is(err, domain.ErrUnauthenticated) {
		return nil
	}
	return err
}

// Refresh re-resolves the session.
//
//   - 2xx from the status check: authenticated from the first-party session.
//   - 401: the identity provider is consulted; success authenticates from its
//     payload, any failure resolves to unauthenticated and returns
//     domain.ErrUnauthenticated.
//   - anything else: the status is left as it was, LastError is set and the
//     *domain.APIError is returned.
func (s *SessionManager) Refresh(ctx context.Context) error {
	seq := s.begin()
	log := s.log.With().Uint64("seq", seq).Logger()

	var payload domain.StatusPayload
	err := s.client.GetJSON(ctx, s.paths.Status, &payload)
	if err == nil {
		if !s.authenticate(ctx, seq, payload, domain.SourceSession) {
			return s.superseded(ctx)
		}
		log.Debug().Str("source", string(domain.SourceSession)).Msg("session resolved")
		return nil
	}

	if !domain.IsUnauthorized(err) {
		log.Warn().Err(err).Str("kind", string(domain.KindOf(err))).Msg("session status unresolved")
		if !s.apply(ctx, seq, func(as *domain.AuthSession) {
			as.LastError = domain.Message(err)
		}) {
			return s.superseded(ctx)
		}
		metrics.SessionResolutionsTotal.WithLabelValues("unresolved").Inc()
		return err
	}

	payload, token, err := s.secondary(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("identity provider fallback failed")
		if !s.apply(ctx, seq, func(as *domain.AuthSession) {
			as.Status = domain.StatusUnauthenticated
			as.Identity = nil
			as.Info = nil
			as.ResolvedAt = s.now()
		}) {
			return s.superseded(ctx)
		}
		metrics.SessionResolutionsTotal.WithLabelValues("unauthenticated").Inc()
		return fmt.Errorf("%w: %s", domain.ErrUnauthenticated, domain.Message(err))
	}

	if !s.authenticate(ctx, seq, payload, domain.SourceIdentityProvider) {
		return s.superseded(ctx)
	}
	log.Debug().Str("source", string(domain.SourceIdentityProvider)).Msg("session resolved")
	s.registerExternal(ctx, token, payload)
	return nil
}

// Login posts credentials and then re-resolves the session; the login response
// itself never populates the identity.
func (s *SessionManager) Login(ctx context.Context, creds domain.Credentials) error {
	if err := s.validator.Validate(creds); err != nil {
		s.setError(err)
		return err
	}
	if err := s.client.PostJSON(ctx, s.paths.Login, creds, nil); err != nil {
		s.log.Info().Err(err).Str("username", creds.Username).Msg("login rejected")
		s.setError(err)
		return fmt.Errorf("login: %w", err)
	}
	s.log.Info().Str("username", creds.Username).Msg("login accepted")
	return s.Refresh(ctx)
}

// Logout posts to the backend and then signs out locally whatever the outcome.
// The backend error, if any, is returned for display only.
func (s *SessionManager) Logout(ctx context.Context) error {
	err := s.client.PostJSON(ctx, s.paths.Logout, nil, nil)

	s.mu.Lock()
	// Invalidate every resolution still in flight.
	s.issued++
	s.applied = s.issued
	s.session = domain.AuthSession{
		Status:     domain.StatusUnauthenticated,
		ResolvedAt: s.now(),
	}
	if err != nil {
		s.session.LastError = domain.Message(err)
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Msg("logout request failed; signed out locally")
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Msg("signed out")
	return nil
}

// Register creates an account. The session is not changed; callers log in
// afterwards if they want to.
func (s *SessionManager) Register(ctx context.Context, reg domain.Registration) error {
	if err := s.validator.Validate(reg); err != nil {
		s.setError(err)
		return err
	}
	if err := s.client.PostJSON(ctx, s.paths.Register, reg, nil); err != nil {
		s.setError(err)
		return fmt.Errorf("register: %w", err)
	}
	s.log.Info().Str("username", reg.Username).Msg("account registered")
	return nil
}

func (s *SessionManager) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// apply mutates the session when seq is the newest answer so far and ctx is live.
func (s *SessionManager) apply(ctx context.Context, seq uint64, fn func(*domain.AuthSession)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || seq <= s.applied {
		metrics.SessionResolutionsTotal.WithLabelValues("discarded").Inc()
		return false
	}

	next := s.session.Clone()
	fn(&next)
	if next.Status != s.session.Status && !s.session.Status.CanTransitionTo(next.Status) {
		s.log.Error().
			Str("from", string(s.session.Status)).
			Str("to", string(next.Status)).
			Msg(domain.ErrInvalidTransition.Error())
		return false
	}
	if next.Status != domain.StatusAuthenticated {
		next.Identity = nil
		next.Info = nil
	}

	s.applied = seq
	s.session = next
	return true
}

func (s *SessionManager) authenticate(ctx context.Context, seq uint64, payload domain.StatusPayload, source domain.IdentitySource) bool {
	ok := s.apply(ctx, seq, func(as *domain.AuthSession) {
		as.Status = domain.StatusAuthenticated
		as.Identity = payload.Identity(source)
		as.Info = payload.Info()
		as.LastError = ""
		as.ResolvedAt = s.now()
	})
	if ok {
		metrics.SessionResolutionsTotal.WithLabelValues(string(source)).Inc()
	}
	return ok
}

func (s *SessionManager) superseded(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrSuperseded
}

func (s *SessionManager) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.LastError = domain.Message(err)
}

// secondary performs the bearer-token status check through the identity provider.
func (s *SessionManager) secondary(ctx context.Context) (domain.StatusPayload, string, error) {
	var payload domain.StatusPayload
	if s.idp == nil || !s.idp.IsLoaded() {
		return payload, "", errIdentityUnavailable
	}
	if !s.idp.IsSignedIn() {
		return payload, "", domain.ErrUnauthenticated
	}

	token, err := s.idp.Token(ctx)
	if err != nil {
		return payload, "", fmt.Errorf("identity provider token: %w", err)
	}
	if token == "" {
		return payload, "", domain.ErrUnauthenticated
	}

	if err := s.client.GetJSON(ctx, s.paths.IdentityStatus, &payload, ports.WithBearer(token)); err != nil {
		return payload, "", err
	}
	return payload, token, nil
}

// registerExternal notifies the backend once per subject after its first
// external sign-in. Failures are logged and retried on a later resolution.
func (s *SessionManager) registerExternal(ctx context.Context, token string, payload domain.StatusPayload) {
	subject := payload.Subject
	if subject == "" {
		subject = payload.Email
	}
	if subject == "" || s.paths.IdentityRegister == "" {
		return
	}

	s.mu.Lock()
	if s.registered[subject] {
		s.mu.Unlock()
		return
	}
	s.registered[subject] = true
	s.mu.Unlock()

	body := map[string]string{
		"sub":   payload.Subject,
		"email": payload.Email,
		"name":  payload.Name,
	}
	if err := s.client.PostJSON(ctx, s.paths.IdentityRegister, body, nil, ports.WithBearer(token)); err != nil {
		s.log.Warn().Err(err).Str("subject", subject).Msg("identity registration callback failed")
		s.mu.Lock()
		delete(s.registered, subject)
		s.mu.Unlock()
		return
	}
	s.log.Info().Str("subject", subject).Msg("external identity registered")
}
