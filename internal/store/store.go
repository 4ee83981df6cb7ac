package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAppExists is returned when creating an app whose key is taken.
	ErrAppExists = errors.New("app already exists")
)

// App is a persisted application registration.
type App struct {
	Key       string
	Secret    string
	CreatedAt time.Time
}

// AppStore persists registered applications.
type AppStore interface {
	CreateApp(ctx context.Context, key, secret string) (*App, error)
	GetApp(ctx context.Context, key string) (*App, error)
	ListApps(ctx context.Context) ([]App, error)
	DeleteApp(ctx context.Context, key string) error
}

// Store is the complete persistence interface.
type Store interface {
	AppStore
	Close() error
}
