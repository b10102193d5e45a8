package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medforge/healthagent/internal/profile"
	"github.com/medforge/healthagent/store"
	"github.com/medforge/healthagent/store/db/sqlite"
)

const sampleCSV = `"HADM_ID","SUBJECT_ID","GENDER","AGE","ADMISSION_TYPE","DIAGNOSIS","HOSPITAL_EXPIRE_FLAG","CHARTTIME","CATEGORY","DESCRIPTION","TEXT"
170490,10006,"F",70.2,"EMERGENCY","SEPSIS",0,"2150-03-21 00:00:00","Discharge summary","Report","Admission narrative one."
170491,10007,"M",85.0,"ELECTIVE","PNEUMONIA",1,"","","","Admission narrative two."
170490,10006,"F",70.2,"EMERGENCY","SEPSIS",0,"","","","Duplicate row."
bogus,10008,"F",60,"EMERGENCY","CHF",0,"","","","Bad identifier."
170493,10009,"F",60,"EMERGENCY","CHF",0,"","","",""
`

func newLoadTestStore(t *testing.T) *store.Store {
	t.Helper()

	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "healthagent_test.db"),
	}
	driver, err := sqlite.NewDB(testProfile)
	require.NoError(t, err)
	st := store.New(driver, testProfile)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestLoadCSV(t *testing.T) {
	ctx := context.Background()
	st := newLoadTestStore(t)

	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	report, err := loadCSV(ctx, st, path, 0)
	require.NoError(t, err)
	require.Equal(t, 5, report.Rows)
	require.Equal(t, 2, report.Loaded)
	require.Equal(t, 1, report.Skipped, "duplicate HADM_ID is skipped")
	require.Equal(t, 2, report.Failed, "bad identifier and empty text are rejected")

	admission, err := st.GetAdmission(ctx, 170490)
	require.NoError(t, err)
	require.NotNil(t, admission)
	require.Equal(t, "SEPSIS", admission.Diagnosis)
	require.NotNil(t, admission.Age)
	require.Equal(t, int32(70), *admission.Age)
	require.NotNil(t, admission.CharttimeTs)
	require.Equal(t, "Discharge summary", admission.Category)

	expired, err := st.GetAdmission(ctx, 170491)
	require.NoError(t, err)
	require.NotNil(t, expired)
	require.True(t, expired.HospitalExpireFlag)
	// Empty CATEGORY and DESCRIPTION fall back to the dataset default.
	require.Equal(t, "Discharge summary", expired.Category)
}

func TestLoadCSVLimit(t *testing.T) {
	ctx := context.Background()
	st := newLoadTestStore(t)

	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	report, err := loadCSV(ctx, st, path, 1)
	require.NoError(t, err)
	require.Equal(t, 1, report.Loaded)
}

func TestLoadCSVMissingColumns(t *testing.T) {
	ctx := context.Background()
	st := newLoadTestStore(t)

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"SUBJECT_ID\",\"TEXT\"\n1,\"x\"\n"), 0o644))

	_, err := loadCSV(ctx, st, path, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "HADM_ID")
}

func TestParseCharttime(t *testing.T) {
	ts, err := parseCharttime("2150-03-21 00:00:00")
	require.NoError(t, err)
	require.NotZero(t, ts)

	_, err = parseCharttime("2150-03-21T00:00:00Z")
	require.NoError(t, err)

	_, err = parseCharttime("21/03/2150")
	require.Error(t, err)
}
