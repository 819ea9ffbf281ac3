package store

import (
	"context"
	"errors"
	"time"

	"weeklychef/internal/catalog"
)

var (
	ErrNotFound         = errors.New("store: not found")
	ErrUsernameTaken    = errors.New("store: username already taken")
	ErrConflict         = errors.New("store: conflicting row")
	ErrInvalidReference = errors.New("store: referenced row does not exist")
	ErrInvalidValue     = errors.New("store: invalid column value")
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

// Reader is what ownership resolution and token refresh need.
type Reader interface {
	GetByID(ctx context.Context, family catalog.Family, id int64) (catalog.Row, error)
	GetUserStaffFlag(ctx context.Context, userID int64) (bool, error)
}

// Store is the full persistence contract. Resource values are keyed by SQL column.
type Store interface {
	Reader

	GetUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, u User) (User, error)

	Insert(ctx context.Context, family catalog.Family, values map[string]any) (catalog.Row, error)
	Update(ctx context.Context, family catalog.Family, id int64, values map[string]any) (catalog.Row, error)
	Delete(ctx context.Context, family catalog.Family, id int64) error
}
