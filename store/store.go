package store

import (
	"context"
	"errors"

	"github.com/medforge/healthagent/internal/profile"
)

// Sentinel errors shared by all drivers. Drivers translate engine-specific
// failures (e.g. pq error codes, sqlite result codes) into these so that
// callers never depend on a concrete database engine.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates an out-of-range or malformed argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForeignKeyViolation indicates a referenced row does not exist.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate creates the schema if it is not present yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// Ping verifies the underlying database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
