package store

import "context"

// Summary represents the AI-generated condensation of an admission's
// discharge narrative. At most one summary exists per admission; the schema
// enforces this with a unique constraint on hadm_id.
type Summary struct {
	ID             int32
	HadmID         int32
	SummaryText    string
	OriginalLength int32
	// ProcessingTime is the wall-clock duration of the generation call in
	// seconds.
	ProcessingTime float64
	ModelUsed      string
	CreatedTs      int64 // unix epoch seconds, assigned at persistence time
}

// CreateSummary is the create condition for a summary.
type CreateSummary struct {
	HadmID         int32
	SummaryText    string
	OriginalLength int32
	ProcessingTime float64
	ModelUsed      string
}

// FindSummary is the find condition for summaries.
type FindSummary struct {
	ID     *int32
	HadmID *int32
	Limit  *int
}

const (
	// MaxSummaryListLimit bounds recent-summary listings.
	MaxSummaryListLimit = 50
	// DefaultSummaryListLimit is used when no limit is supplied.
	DefaultSummaryListLimit = 5
)

// CreateSummary inserts a new summary record and assigns its identifier and
// creation timestamp. ErrForeignKeyViolation is returned when the admission
// does not exist, ErrAlreadyExists when a summary for the admission is
// already present.
func (s *Store) CreateSummary(ctx context.Context, create *CreateSummary) (*Summary, error) {
	return s.driver.CreateSummary(ctx, create)
}

// GetSummaryByAdmission gets the summary of a specific admission. Returns
// (nil, nil) when no summary exists.
func (s *Store) GetSummaryByAdmission(ctx context.Context, hadmID int32) (*Summary, error) {
	list, err := s.driver.ListSummaries(ctx, &FindSummary{HadmID: &hadmID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListRecentSummaries returns up to limit summaries ordered by creation
// timestamp descending, ties broken by identifier descending. A limit outside
// [1, MaxSummaryListLimit] yields ErrInvalidArgument.
func (s *Store) ListRecentSummaries(ctx context.Context, limit int) ([]*Summary, error) {
	if limit < 1 || limit > MaxSummaryListLimit {
		return nil, ErrInvalidArgument
	}
	return s.driver.ListSummaries(ctx, &FindSummary{Limit: &limit})
}

// CountSummaries returns the total number of stored summaries.
func (s *Store) CountSummaries(ctx context.Context) (int64, error) {
	return s.driver.CountSummaries(ctx)
}

// DeleteSummariesByAdmission removes all summary rows (zero or one) for the
// admission and returns the count removed. Zero is not an error; the caller
// decides how to report it.
func (s *Store) DeleteSummariesByAdmission(ctx context.Context, hadmID int32) (int64, error) {
	return s.driver.DeleteSummariesByAdmission(ctx, hadmID)
}
