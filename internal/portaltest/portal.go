// Package portaltest runs an in-process portal backend for tests. It serves the
// same HTTP surface as the real portal: first-party cookie sessions, the
// identity provider bearer endpoints, notice listing, updates and exports.
package portaltest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookie       = "session"
	DefaultClerkSecret  = "portaltest-clerk-secret"
	DefaultStatusPath   = "/api/clerk/status"
	DefaultRegisterPath = "/api/clerk/register"
)

// failure is a canned response served instead of the real handler.
type failure struct {
	status int
	body   string
	delay  time.Duration
}

// Portal is a running fake backend.
type Portal struct {
	Echo   *echo.Echo
	Server *httptest.Server

	users       *UserStore
	clerkSecret []byte

	mu            sync.Mutex
	sessions      map[string]string
	notices       []map[string]any
	items         map[string][]map[string]any
	exports       map[string][]byte
	failures      map[string][]failure
	calls         map[string]int
	registrations map[string]int
	lastUpdate    time.Time
	updating      bool
	nextSession   int
}

// Option customises a Portal before it starts.
type Option func(*Portal)

// WithClerkSecret sets the HMAC secret used to verify identity provider tokens.
func WithClerkSecret(secret string) Option {
	return func(p *Portal) {
		p.clerkSecret = []byte(secret)
	}
}

// New starts a Portal on a loopback listener. Call Close when done.
func New(opts ...Option) *Portal {
	p := &Portal{
		users:         NewUserStore(),
		clerkSecret:   []byte(DefaultClerkSecret),
		sessions:      make(map[string]string),
		items:         make(map[string][]map[string]any),
		exports:       map[string][]byte{"editais.csv": []byte("cnpj;objeto\n"), "editais.xlsx": []byte("PK\x03\x04")},
		failures:      make(map[string][]failure),
		calls:         make(map[string]int),
		registrations: make(map[string]int),
		lastUpdate:    time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Echo = newRouter(p)
	p.Server = httptest.NewServer(p.Echo)
	return p
}

// URL is the base URL of the running server.
func (p *Portal) URL() string {
	return p.Server.URL
}

// Close stops the server.
func (p *Portal) Close() {
	p.Server.Close()
}

// AddUser registers a first-party account directly.
func (p *Portal) AddUser(name, username, email, password string) error {
	_, err := p.users.Create(name, username, email, password)
	return err
}

// SetNotices replaces the notice list.
func (p *Portal) SetNotices(notices ...map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = notices
}

// SetItems sets the line items served for key.
func (p *Portal) SetItems(key string, items ...map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[key] = items
}

// SetExport sets the bytes served for an export file name.
func (p *Portal) SetExport(name string, content []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exports[name] = content
}

// RemoveExport stops serving an export file name; downloads answer 404.
func (p *Portal) RemoveExport(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.exports, name)
}

// FailNext makes the next request to path answer status with a raw body.
func (p *Portal) FailNext(path string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[path] = append(p.failures[path], failure{status: status, body: body})
}

// DelayNext makes the next request to path wait before being handled normally.
func (p *Portal) DelayNext(path string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[path] = append(p.failures[path], failure{delay: d})
}

// Calls returns how many requests reached path.
func (p *Portal) Calls(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[path]
}

// Registrations returns how many registration callbacks subject triggered.
func (p *Portal) Registrations(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registrations[subject]
}

// ActiveSessions returns the number of live first-party sessions.
func (p *Portal) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// FinishUpdate marks a triggered update as complete.
func (p *Portal) FinishUpdate(at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updating = false
	p.lastUpdate = at
}

// SignClerkToken issues an identity provider session token for subject.
func (p *Portal) SignClerkToken(subject, email, name string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"name":  name,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.clerkSecret)
	if err != nil {
		return "", fmt.Errorf("sign clerk token: %w", err)
	}
	return signed, nil
}

func (p *Portal) record(path string) (failure, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[path]++
	queue := p.failures[path]
	if len(queue) == 0 {
		return failure{}, false
	}
	p.failures[path] = queue[1:]
	return queue[0], true
}

func (p *Portal) openSession(username string) *http.Cookie {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSession++
	id := fmt.Sprintf("sess-%d", p.nextSession)
	p.sessions[id] = username
	return &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true}
}

func (p *Portal) sessionUser(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.sessions[id]
	return u, ok
}

func (p *Portal) closeSession(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, id)
}
