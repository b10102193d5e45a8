package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/medforge/healthagent/internal/profile"
	"github.com/medforge/healthagent/internal/version"
	"github.com/medforge/healthagent/store"
	"github.com/medforge/healthagent/store/db"
)

var (
	loadLimit int

	loadCmd = &cobra.Command{
		Use:   "load <file.csv>",
		Short: "Load discharge-summary records from a MIMIC-III style CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instanceProfile := &profile.Profile{
				Mode:    viper.GetString("mode"),
				Data:    viper.GetString("data"),
				Driver:  viper.GetString("driver"),
				DSN:     viper.GetString("dsn"),
				Version: version.GetCurrentVersion(viper.GetString("mode")),
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				return fmt.Errorf("create db driver: %w", err)
			}
			storeInstance := store.New(dbDriver, instanceProfile)
			defer storeInstance.Close()
			if err := storeInstance.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			report, err := loadCSV(ctx, storeInstance, args[0], loadLimit)
			if err != nil {
				return err
			}

			fmt.Printf("Load complete: %d loaded, %d skipped (duplicate), %d failed of %d rows\n",
				report.Loaded, report.Skipped, report.Failed, report.Rows)
			return nil
		},
	}
)

func init() {
	loadCmd.Flags().IntVar(&loadLimit, "limit", 0, "maximum number of rows to load (0 = all)")
	rootCmd.AddCommand(loadCmd)
}

type loadReport struct {
	Rows    int
	Loaded  int
	Skipped int
	Failed  int
}

// loadCSV streams a CSV export into the store. The header row is matched by
// the legacy uppercase column names; column order does not matter. Duplicate
// admission identifiers are skipped, malformed rows are reported and do not
// abort the load.
func loadCSV(ctx context.Context, storeInstance *store.Store, path string, limit int) (*loadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["HADM_ID"]; !ok {
		return nil, errors.New("csv header is missing the HADM_ID column")
	}
	if _, ok := columns["TEXT"]; !ok {
		return nil, errors.New("csv header is missing the TEXT column")
	}

	report := &loadReport{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Rows++
			report.Failed++
			slog.Warn("skipping malformed csv row", "row", report.Rows, "error", err)
			continue
		}
		report.Rows++

		admission, err := admissionFromRecord(columns, record)
		if err != nil {
			report.Failed++
			slog.Warn("skipping invalid row", "row", report.Rows, "error", err)
			continue
		}

		if _, err := storeInstance.CreateAdmission(ctx, admission); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				report.Skipped++
				continue
			}
			report.Failed++
			slog.Warn("failed to insert admission", "hadm_id", admission.HadmID, "error", err)
			continue
		}
		report.Loaded++

		if limit > 0 && report.Loaded >= limit {
			break
		}
	}
	return report, nil
}

func admissionFromRecord(columns map[string]int, record []string) (*store.Admission, error) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	hadmID, err := strconv.ParseInt(field("HADM_ID"), 10, 32)
	if err != nil || hadmID <= 0 {
		return nil, fmt.Errorf("invalid HADM_ID %q", field("HADM_ID"))
	}
	text := field("TEXT")
	if text == "" {
		return nil, errors.New("empty TEXT")
	}

	admission := &store.Admission{
		HadmID:        int32(hadmID),
		Gender:        strings.ToUpper(field("GENDER")),
		AdmissionType: field("ADMISSION_TYPE"),
		Diagnosis:     field("DIAGNOSIS"),
		Category:      field("CATEGORY"),
		Description:   field("DESCRIPTION"),
		Text:          text,
	}
	if admission.Category == "" {
		admission.Category = "Discharge summary"
	}
	if admission.Description == "" {
		admission.Description = "Discharge summary"
	}

	if v := field("SUBJECT_ID"); v != "" {
		subjectID, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SUBJECT_ID %q", v)
		}
		admission.SubjectID = int32(subjectID)
	}
	// MIMIC exports the age as a float; de-identified ages over 89 are shifted
	// to 300+, which is kept as-is.
	ageField := field("AGE")
	if ageField == "" {
		ageField = field("AGE_CORRECTED")
	}
	if v := ageField; v != "" {
		age, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid AGE %q", v)
		}
		rounded := int32(age)
		admission.Age = &rounded
	}
	if v := field("HOSPITAL_EXPIRE_FLAG"); v != "" {
		admission.HospitalExpireFlag = v == "1" || strings.EqualFold(v, "true")
	}
	if v := field("ED_LOS_HOURS"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ED_LOS_HOURS %q", v)
		}
		admission.EDLOSHours = &hours
	}
	if v := field("TOTAL_LOS_HOURS"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TOTAL_LOS_HOURS %q", v)
		}
		admission.TotalLOSHours = &hours
	}
	if v := field("CHARTTIME"); v != "" {
		ts, err := parseCharttime(v)
		if err != nil {
			return nil, err
		}
		admission.CharttimeTs = &ts
	}
	return admission, nil
}

// parseCharttime accepts the MIMIC export timestamp format and RFC3339.
func parseCharttime(v string) (int64, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Unix(), nil
		}
	}
	return 0, fmt.Errorf("invalid CHARTTIME %q", v)
}
