package store

import "context"

// Admission represents one hospital-stay record with its discharge narrative.
// The legacy MIMIC-III column names (HADM_ID, SUBJECT_ID, ...) exist only at
// the SQL boundary inside the drivers; this struct carries semantic names.
type Admission struct {
	HadmID             int32
	SubjectID          int32
	Gender             string
	Age                *int32
	AdmissionType      string
	Diagnosis          string
	HospitalExpireFlag bool
	EDLOSHours         *float64
	TotalLOSHours      *float64
	CharttimeTs        *int64 // unix epoch seconds, optional
	Category           string
	Description        string
	Text               string // full discharge narrative
}

// FindAdmission is the find condition for admissions.
type FindAdmission struct {
	HadmID *int32
	// Query matches case-insensitively against diagnosis, admission type and
	// gender.
	Query *string
	// Gender is an exact match (upper-cased by the caller).
	Gender *string
	// AdmissionType is a case-insensitive substring match.
	AdmissionType *string
	// AgeMin and AgeMax bound the corrected age, inclusive.
	AgeMin *int32
	AgeMax *int32
	Limit  *int
}

const (
	// MaxAdmissionListLimit bounds list queries over admissions.
	MaxAdmissionListLimit = 1000
	// DefaultAdmissionListLimit is used when no limit is supplied.
	DefaultAdmissionListLimit = 100
)

// CreateAdmission inserts a new admission record. A duplicate admission
// identifier yields ErrAlreadyExists.
func (s *Store) CreateAdmission(ctx context.Context, create *Admission) (*Admission, error) {
	return s.driver.CreateAdmission(ctx, create)
}

// GetAdmission gets an admission by its identifier. Returns (nil, nil) when
// the admission does not exist.
func (s *Store) GetAdmission(ctx context.Context, hadmID int32) (*Admission, error) {
	list, err := s.driver.ListAdmissions(ctx, &FindAdmission{HadmID: &hadmID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListAdmissions lists admissions matching the find condition. A limit outside
// [1, MaxAdmissionListLimit] yields ErrInvalidArgument.
func (s *Store) ListAdmissions(ctx context.Context, find *FindAdmission) ([]*Admission, error) {
	if find.Limit == nil {
		limit := DefaultAdmissionListLimit
		find.Limit = &limit
	}
	if *find.Limit < 1 || *find.Limit > MaxAdmissionListLimit {
		return nil, ErrInvalidArgument
	}
	return s.driver.ListAdmissions(ctx, find)
}

// CountAdmissions counts admissions matching the find condition, ignoring any
// limit.
func (s *Store) CountAdmissions(ctx context.Context, find *FindAdmission) (int64, error) {
	return s.driver.CountAdmissions(ctx, find)
}

// DeleteAdmission removes the admission and any summaries generated for it in
// one transaction. It returns the number of summaries removed, or ErrNotFound
// when the admission does not exist.
func (s *Store) DeleteAdmission(ctx context.Context, hadmID int32) (int64, error) {
	return s.driver.DeleteAdmission(ctx, hadmID)
}
