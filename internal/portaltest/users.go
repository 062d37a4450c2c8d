package portaltest

import (
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("Usuário já existe.")
	ErrEmailExists        = errors.New("Email já cadastrado.")
	ErrInvalidCredentials = errors.New("Usuário ou senha inválidos.")
	ErrNoUsers            = errors.New("Nenhum usuário cadastrado. Crie um usuário primeiro.")
)

// User is a first-party account of the fake portal.
type User struct {
	Name         string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore keeps accounts in memory with bcrypt-hashed passwords.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*User)}
}

// Create hashes password and stores the account.
func (s *UserStore) Create(name, username, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return nil, ErrUserExists
	}
	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrEmailExists
		}
	}

	// MinCost keeps the fake fast; the real backend uses its own hashing.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	s.users[username] = u
	clone := *u
	return &clone, nil
}

// Verify checks username and password.
func (s *UserStore) Verify(username, password string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.users) == 0 {
		return nil, ErrNoUsers
	}
	u, ok := s.users[strings.TrimSpace(username)]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	clone := *u
	return &clone, nil
}

// Get returns the account for username.
func (s *UserStore) Get(username string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, false
	}
	clone := *u
	return &clone, true
}
