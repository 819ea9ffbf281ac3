package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"weeklychef/internal/auth"
	"weeklychef/internal/store"
)

var (
	ErrInvalidInput       = errors.New("account: invalid input")
	ErrInvalidCredentials = errors.New("account: wrong user data given")
	ErrTooManyAttempts    = errors.New("account: too many failed login attempts")
)

const (
	minUsernameLength = 4
	minPasswordLength = 5
	maxUsernameLength = 25
)

// Users is the user persistence the service needs.
type Users interface {
	GetUserByUsername(ctx context.Context, username string) (store.User, error)
	CreateUser(ctx context.Context, u store.User) (store.User, error)
}

type Sessions interface {
	Issue(now time.Time, subjectID int64, isStaff bool) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string, now time.Time) (auth.TokenPair, error)
}

// Publisher emits domain events. Publishing is best-effort.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// LoginObserver is told the outcome of every login. May be nil.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

const RoutingKeyUserCreated = "user.created"

type UserCreatedEvent struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type Service struct {
	users    Users
	sessions Sessions
	hasher   PasswordHasher
	throttle Throttle
	events   Publisher
	observer LoginObserver
	log      *slog.Logger
	clock    func() time.Time
}

type Options struct {
	Throttle Throttle
	Events   Publisher
	Observer LoginObserver
	Logger   *slog.Logger
}

func NewService(users Users, sessions Sessions, hasher PasswordHasher, opts Options) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		throttle: opts.Throttle,
		events:   opts.Events,
		observer: opts.Observer,
		log:      opts.Logger,
		clock:    time.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Register creates a non-staff user and returns a fresh token pair.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (auth.TokenPair, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	switch {
	case len(username) < minUsernameLength || len(username) > maxUsernameLength:
		return auth.TokenPair{}, fmt.Errorf("%w: username must be %d to %d characters", ErrInvalidInput, minUsernameLength, maxUsernameLength)
	case len(req.Password) < minPasswordLength:
		return auth.TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	case email == "" || !strings.Contains(email, "@"):
		return auth.TokenPair{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return auth.TokenPair{}, err
	}

	u, err := s.users.CreateUser(ctx, store.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsStaff:      false,
	})
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return auth.TokenPair{}, fmt.Errorf("%w: username already taken", ErrInvalidInput)
		}
		return auth.TokenPair{}, err
	}

	s.publishCreated(ctx, u)

	return s.sessions.Issue(s.clock(), u.ID, u.IsStaff)
}

// Login checks credentials. Unknown users and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, username, password string) (auth.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.observe("invalid_input")
		return auth.TokenPair{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	if s.throttle != nil {
		ok, err := s.throttle.Allow(ctx, username)
		if err != nil {
			// fail open: the store outage should not lock every user out
			s.log.Warn("login throttle unavailable", "err", err)
		} else if !ok {
			s.observe("throttled")
			return auth.TokenPair{}, ErrTooManyAttempts
		}
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return auth.TokenPair{}, err
	}

	valid := false
	if err == nil {
		valid, err = s.hasher.Verify(password, u.PasswordHash)
		if err != nil {
			s.log.Error("stored password hash unreadable", "user_id", u.ID, "err", err)
			valid = false
		}
	}
	if !valid {
		s.recordFailure(ctx, username)
		s.observe("invalid_credentials")
		return auth.TokenPair{}, ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.log.Warn("login throttle reset failed", "err", err)
		}
	}
	s.observe("success")
	return s.sessions.Issue(s.clock(), u.ID, u.IsStaff)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return auth.TokenPair{}, fmt.Errorf("%w: refresh_token is required", ErrInvalidInput)
	}
	return s.sessions.Refresh(ctx, refreshToken, s.clock())
}

func (s *Service) recordFailure(ctx context.Context, username string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Fail(ctx, username); err != nil {
		s.log.Warn("login throttle update failed", "err", err)
	}
}

func (s *Service) publishCreated(ctx context.Context, u store.User) {
	if s.events == nil {
		return
	}
	ev := UserCreatedEvent{UserID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
	if err := s.events.Publish(ctx, RoutingKeyUserCreated, ev); err != nil {
		s.log.Warn("user.created publish failed", "user_id", u.ID, "err", err)
	}
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveLogin(outcome)
	}
}
