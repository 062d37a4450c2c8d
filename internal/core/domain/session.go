package domain

import (
	"errors"
	"time"
)

// AuthStatus represents the resolution state of the operator's session.
type AuthStatus string

const (
	StatusLoading         AuthStatus = "loading"
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusUnauthenticated AuthStatus = "unauthenticated"
)

// IdentitySource records which tier resolved the session.
type IdentitySource string

const (
	SourceSession          IdentitySource = "session"
	SourceIdentityProvider IdentitySource = "identity_provider"
)

// validTransitions defines the allowed session state machine transitions.
// Re-resolving into the same terminal state is allowed.
var validTransitions = map[AuthStatus][]AuthStatus{
	StatusLoading:         {StatusAuthenticated, StatusUnauthenticated},
	StatusAuthenticated:   {StatusLoading, StatusAuthenticated, StatusUnauthenticated},
	StatusUnauthenticated: {StatusLoading, StatusAuthenticated, StatusUnauthenticated},
}

var ErrInvalidTransition = errors.New("invalid session transition")
var ErrUnauthenticated = errors.New("not authenticated")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s AuthStatus) CanTransitionTo(next AuthStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Identity is the display identity of the signed-in operator.
type Identity struct {
	Subject  string         `json:"subject,omitempty"`
	Name     string         `json:"name,omitempty"`
	Username string         `json:"username,omitempty"`
	Email    string         `json:"email,omitempty"`
	Source   IdentitySource `json:"source"`
}

// DisplayName mirrors the header fallback: name, then username, then a generic label.
func (i *Identity) DisplayName() string {
	if i == nil {
		return "Usuário"
	}
	if i.Name != "" {
		return i.Name
	}
	if i.Username != "" {
		return i.Username
	}
	return "Usuário"
}

// PortalStatus is the non-identity part of the status check body.
type PortalStatus struct {
	TotalNotices *int           `json:"total_editais,omitempty"`
	LastUpdate   string         `json:"last_update,omitempty"`
	Scheduler    map[string]any `json:"scheduler,omitempty"`
}

// StatusPayload is the body returned by both status checks.
type StatusPayload struct {
	Subject      string         `json:"sub,omitempty"`
	Name         string         `json:"name,omitempty"`
	Username     string         `json:"username,omitempty"`
	Email        string         `json:"email,omitempty"`
	TotalNotices *int           `json:"total_editais,omitempty"`
	LastUpdate   string         `json:"last_update,omitempty"`
	Scheduler    map[string]any `json:"scheduler,omitempty"`
}

// Identity projects the payload into an Identity tagged with its source.
func (p StatusPayload) Identity(source IdentitySource) *Identity {
	return &Identity{
		Subject:  p.Subject,
		Name:     p.Name,
		Username: p.Username,
		Email:    p.Email,
		Source:   source,
	}
}

// Info projects the payload into a PortalStatus.
func (p StatusPayload) Info() *PortalStatus {
	return &PortalStatus{
		TotalNotices: p.TotalNotices,
		LastUpdate:   p.LastUpdate,
		Scheduler:    p.Scheduler,
	}
}

// AuthSession is the resolved authentication state. Identity and Info are set
// only while Status is StatusAuthenticated.
type AuthSession struct {
	Status     AuthStatus    `json:"status"`
	Identity   *Identity     `json:"identity,omitempty"`
	Info       *PortalStatus `json:"info,omitempty"`
	LastError  string        `json:"last_error,omitempty"`
	ResolvedAt time.Time     `json:"resolved_at,omitempty"`
}

// Authenticated reports whether the session resolved to an operator.
func (s AuthSession) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Clone returns a deep copy safe to hand to callers.
func (s AuthSession) Clone() AuthSession {
	out := s
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	if s.Info != nil {
		info := *s.Info
		if s.Info.TotalNotices != nil {
			n := *s.Info.TotalNotices
			info.TotalNotices = &n
		}
		if s.Info.Scheduler != nil {
			info.Scheduler = make(map[string]any, len(s.Info.Scheduler))
			for k, v := range s.Info.Scheduler {
				info.Scheduler[k] = v
			}
		}
		out.Info = &info
	}
	return out
}
