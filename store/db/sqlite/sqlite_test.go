package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medforge/healthagent/internal/profile"
	"github.com/medforge/healthagent/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "healthagent_test.db"),
	}
	driver, err := NewDB(testProfile)
	require.NoError(t, err)

	st := store.New(driver, testProfile)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func mustCreateAdmission(t *testing.T, st *store.Store, admission *store.Admission) *store.Admission {
	t.Helper()
	created, err := st.CreateAdmission(context.Background(), admission)
	require.NoError(t, err)
	return created
}

func testAdmission(hadmID int32) *store.Admission {
	age := int32(70)
	return &store.Admission{
		HadmID:        hadmID,
		SubjectID:     10006,
		Gender:        "F",
		Age:           &age,
		AdmissionType: "EMERGENCY",
		Diagnosis:     "SEPSIS",
		Category:      "Discharge summary",
		Description:   "Discharge summary",
		Text:          "Admission narrative for testing.",
	}
}

func TestAdmissionCreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	charttime := int64(1490054400)
	edLOS := 5.5
	admission := testAdmission(170490)
	admission.CharttimeTs = &charttime
	admission.EDLOSHours = &edLOS
	mustCreateAdmission(t, st, admission)

	got, err := st.GetAdmission(ctx, 170490)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int32(170490), got.HadmID)
	require.Equal(t, int32(10006), got.SubjectID)
	require.Equal(t, "F", got.Gender)
	require.NotNil(t, got.Age)
	require.Equal(t, int32(70), *got.Age)
	require.NotNil(t, got.CharttimeTs)
	require.Equal(t, charttime, *got.CharttimeTs)
	require.NotNil(t, got.EDLOSHours)
	require.InDelta(t, 5.5, *got.EDLOSHours, 1e-9)
	require.Nil(t, got.TotalLOSHours)

	missing, err := st.GetAdmission(ctx, 999999)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAdmissionDuplicateID(t *testing.T) {
	st := newTestStore(t)

	mustCreateAdmission(t, st, testAdmission(170490))
	_, err := st.CreateAdmission(context.Background(), testAdmission(170490))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestAdmissionFilters(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a1 := testAdmission(101)
	a1.Diagnosis = "SEPSIS"
	a2 := testAdmission(102)
	a2.Gender = "M"
	a2.Diagnosis = "PNEUMONIA"
	a2.AdmissionType = "ELECTIVE"
	age85 := int32(85)
	a2.Age = &age85
	a3 := testAdmission(103)
	a3.Diagnosis = "SEPTIC SHOCK"
	for _, a := range []*store.Admission{a1, a2, a3} {
		mustCreateAdmission(t, st, a)
	}

	// Case-insensitive substring search over diagnosis.
	q := "sep"
	list, err := st.ListAdmissions(ctx, &store.FindAdmission{Query: &q})
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Results are ordered by admission identifier.
	require.Equal(t, int32(101), list[0].HadmID)
	require.Equal(t, int32(103), list[1].HadmID)

	gender := "M"
	list, err = st.ListAdmissions(ctx, &store.FindAdmission{Gender: &gender})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int32(102), list[0].HadmID)

	admissionType := "elect"
	list, err = st.ListAdmissions(ctx, &store.FindAdmission{AdmissionType: &admissionType})
	require.NoError(t, err)
	require.Len(t, list, 1)

	ageMin, ageMax := int32(80), int32(90)
	list, err = st.ListAdmissions(ctx, &store.FindAdmission{AgeMin: &ageMin, AgeMax: &ageMax})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int32(102), list[0].HadmID)

	total, err := st.CountAdmissions(ctx, &store.FindAdmission{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	// Count ignores the limit while the listing honors it.
	limit := 2
	list, err = st.ListAdmissions(ctx, &store.FindAdmission{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestAdmissionListLimitValidation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	zero := 0
	_, err := st.ListAdmissions(ctx, &store.FindAdmission{Limit: &zero})
	require.ErrorIs(t, err, store.ErrInvalidArgument)

	tooLarge := store.MaxAdmissionListLimit + 1
	_, err = st.ListAdmissions(ctx, &store.FindAdmission{Limit: &tooLarge})
	require.ErrorIs(t, err, store.ErrInvalidArgument)
}

func TestSummaryForeignKey(t *testing.T) {
	st := newTestStore(t)

	_, err := st.CreateSummary(context.Background(), &store.CreateSummary{
		HadmID:      999999,
		SummaryText: "orphan",
		ModelUsed:   "test-model",
	})
	require.ErrorIs(t, err, store.ErrForeignKeyViolation)
}

func TestSummaryUniquePerAdmission(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mustCreateAdmission(t, st, testAdmission(170490))

	first, err := st.CreateSummary(ctx, &store.CreateSummary{
		HadmID:         170490,
		SummaryText:    "first",
		OriginalLength: 100,
		ProcessingTime: 1.5,
		ModelUsed:      "test-model",
	})
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	require.NotZero(t, first.CreatedTs)

	_, err = st.CreateSummary(ctx, &store.CreateSummary{
		HadmID:      170490,
		SummaryText: "second",
		ModelUsed:   "test-model",
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := st.GetSummaryByAdmission(ctx, 170490)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "first", got.SummaryText)
	require.InDelta(t, 1.5, got.ProcessingTime, 1e-9)
}

func TestSummaryRecencyOrdering(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	for hadmID := int32(101); hadmID <= 103; hadmID++ {
		mustCreateAdmission(t, st, testAdmission(hadmID))
		_, err := st.CreateSummary(ctx, &store.CreateSummary{
			HadmID:      hadmID,
			SummaryText: "summary",
			ModelUsed:   "test-model",
		})
		require.NoError(t, err)
	}

	// All rows share the same creation second; the identifier breaks the tie
	// so the listing is newest-insert first.
	list, err := st.ListRecentSummaries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, int32(103), list[0].HadmID)
	require.Equal(t, int32(102), list[1].HadmID)
	require.Equal(t, int32(101), list[2].HadmID)

	list, err = st.ListRecentSummaries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int32(103), list[0].HadmID)

	_, err = st.ListRecentSummaries(ctx, 0)
	require.ErrorIs(t, err, store.ErrInvalidArgument)
	_, err = st.ListRecentSummaries(ctx, store.MaxSummaryListLimit+1)
	require.ErrorIs(t, err, store.ErrInvalidArgument)

	count, err := st.CountSummaries(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
}

func TestDeleteSummariesByAdmission(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mustCreateAdmission(t, st, testAdmission(170490))
	_, err := st.CreateSummary(ctx, &store.CreateSummary{
		HadmID:      170490,
		SummaryText: "summary",
		ModelUsed:   "test-model",
	})
	require.NoError(t, err)

	deleted, err := st.DeleteSummariesByAdmission(ctx, 170490)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	// Deleting again is a no-op reported as zero rows.
	deleted, err = st.DeleteSummariesByAdmission(ctx, 170490)
	require.NoError(t, err)
	require.Equal(t, int64(0), deleted)

	// The admission itself is untouched.
	admission, err := st.GetAdmission(ctx, 170490)
	require.NoError(t, err)
	require.NotNil(t, admission)
}

func TestDeleteAdmissionCascades(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mustCreateAdmission(t, st, testAdmission(170490))
	_, err := st.CreateSummary(ctx, &store.CreateSummary{
		HadmID:      170490,
		SummaryText: "summary",
		ModelUsed:   "test-model",
	})
	require.NoError(t, err)

	deletedSummaries, err := st.DeleteAdmission(ctx, 170490)
	require.NoError(t, err)
	require.Equal(t, int64(1), deletedSummaries)

	admission, err := st.GetAdmission(ctx, 170490)
	require.NoError(t, err)
	require.Nil(t, admission)
	summary, err := st.GetSummaryByAdmission(ctx, 170490)
	require.NoError(t, err)
	require.Nil(t, summary)

	_, err = st.DeleteAdmission(ctx, 170490)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}
