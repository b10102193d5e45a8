package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error

	// Admission methods.
	CreateAdmission(ctx context.Context, create *Admission) (*Admission, error)
	ListAdmissions(ctx context.Context, find *FindAdmission) ([]*Admission, error)
	CountAdmissions(ctx context.Context, find *FindAdmission) (int64, error)
	// DeleteAdmission removes an admission together with its summary rows in a
	// single transaction and reports the number of summaries removed.
	DeleteAdmission(ctx context.Context, hadmID int32) (int64, error)

	// Summary methods.
	CreateSummary(ctx context.Context, create *CreateSummary) (*Summary, error)
	ListSummaries(ctx context.Context, find *FindSummary) ([]*Summary, error)
	CountSummaries(ctx context.Context) (int64, error)
	DeleteSummariesByAdmission(ctx context.Context, hadmID int32) (int64, error)
}
