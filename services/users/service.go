package users

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"phimtoc/internal/localstore"
	"phimtoc/models"
)

const (
	// currentUserKey holds the signed-in user; usersKey holds all known
	// accounts by email.
	currentUserKey = "phimtoc_user"
	usersKey       = "phimtoc_users"

	// adminEmail is the one account that gets the admin flag. This is a
	// simulated profile store, not a real credential system.
	adminEmail = "admin@phimtoc.com"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrEmailTaken       = errors.New("email is already registered")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrNotSignedIn      = errors.New("no user is signed in")
)

// Service manages the simulated local accounts: register, login, logout and
// the current-session record, all persisted in the local key-value store.
type Service struct {
	mu    sync.Mutex
	store *localstore.Store
	now   func() time.Time
}

func NewService(store *localstore.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Register creates an account and signs it in.
func (s *Service) Register(email, password, name string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return models.User{}, ErrEmailRequired
	}
	if len(password) < 6 {
		return models.User{}, ErrPasswordTooShort
	}
	if strings.TrimSpace(name) == "" {
		name = localPart(email)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.accountsLocked()
	if _, exists := accounts[email]; exists {
		return models.User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		IsAdmin:      email == adminEmail,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	accounts[email] = user

	if err := s.store.Put(usersKey, accounts); err != nil {
		return models.User{}, err
	}
	if err := s.store.Put(currentUserKey, user.Sanitized()); err != nil {
		return models.User{}, err
	}
	log.Printf("[users] registered %s", email)
	return user.Sanitized(), nil
}

// Login signs a user in. Unknown emails are provisioned on the fly with the
// given password, keeping the original walk-up-and-use behavior; known
// emails must present the right password.
func (s *Service) Login(email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return models.User{}, ErrEmailRequired
	}
	if len(password) < 6 {
		return models.User{}, ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.accountsLocked()
	user, exists := accounts[email]
	if exists {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return models.User{}, ErrBadCredentials
		}
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, err
		}
		user = models.User{
			ID:           uuid.NewString(),
			Email:        email,
			Name:         localPart(email),
			IsAdmin:      email == adminEmail,
			PasswordHash: string(hash),
			CreatedAt:    s.now().UTC(),
		}
		accounts[email] = user
		if err := s.store.Put(usersKey, accounts); err != nil {
			return models.User{}, err
		}
	}

	if err := s.store.Put(currentUserKey, user.Sanitized()); err != nil {
		return models.User{}, err
	}
	log.Printf("[users] %s signed in", email)
	return user.Sanitized(), nil
}

// Logout clears the current session. Logging out while signed out is a no-op.
func (s *Service) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(currentUserKey)
}

// Current returns the signed-in user, or ErrNotSignedIn.
func (s *Service) Current() (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user models.User
	if !s.store.Get(currentUserKey, &user) || user.ID == "" {
		return models.User{}, ErrNotSignedIn
	}
	return user.Sanitized(), nil
}

func (s *Service) accountsLocked() map[string]models.User {
	return localstore.Read(s.store, usersKey, map[string]models.User{})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
