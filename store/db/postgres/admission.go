package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medforge/healthagent/store"
)

// admissionColumns is the explicit mapping between the legacy MIMIC-III column
// names and the scan order used by scanAdmission.
const admissionColumns = `"HADM_ID", "SUBJECT_ID", "GENDER", "AGE_CORRECTED", "ADMISSION_TYPE", "DIAGNOSIS", "HOSPITAL_EXPIRE_FLAG", "ED_LOS_HOURS", "TOTAL_LOS_HOURS", "CHARTTIME", "CATEGORY", "DESCRIPTION", "TEXT"`

func (d *DB) CreateAdmission(ctx context.Context, create *store.Admission) (*store.Admission, error) {
	query := `
		INSERT INTO mimic_discharge_summaries (` + admissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := d.db.ExecContext(ctx, query,
		create.HadmID,
		create.SubjectID,
		create.Gender,
		create.Age,
		create.AdmissionType,
		create.Diagnosis,
		create.HospitalExpireFlag,
		create.EDLOSHours,
		create.TotalLOSHours,
		create.CharttimeTs,
		create.Category,
		create.Description,
		create.Text,
	); err != nil {
		return nil, translateError(err, "failed to create admission")
	}
	return create, nil
}

func (d *DB) ListAdmissions(ctx context.Context, find *store.FindAdmission) ([]*store.Admission, error) {
	where, args := admissionWhere(find)

	query := `SELECT ` + admissionColumns + ` FROM mimic_discharge_summaries WHERE ` + where + ` ORDER BY "HADM_ID"`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list admissions: %w", err)
	}
	defer rows.Close()

	var admissions []*store.Admission
	for rows.Next() {
		admission, err := scanAdmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admission: %w", err)
		}
		admissions = append(admissions, admission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list admissions: %w", err)
	}
	return admissions, nil
}

func (d *DB) CountAdmissions(ctx context.Context, find *store.FindAdmission) (int64, error) {
	where, args := admissionWhere(find)

	var count int64
	query := `SELECT COUNT(*) FROM mimic_discharge_summaries WHERE ` + where
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admissions: %w", err)
	}
	return count, nil
}

func (d *DB) DeleteAdmission(ctx context.Context, hadmID int32) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summaryResult, err := tx.ExecContext(ctx, `DELETE FROM ai_summary WHERE hadm_id = $1`, hadmID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete summaries: %w", err)
	}
	summariesDeleted, err := summaryResult.RowsAffected()
	if err != nil {
		return 0, err
	}

	admissionResult, err := tx.ExecContext(ctx, `DELETE FROM mimic_discharge_summaries WHERE "HADM_ID" = $1`, hadmID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete admission: %w", err)
	}
	admissionsDeleted, err := admissionResult.RowsAffected()
	if err != nil {
		return 0, err
	}
	if admissionsDeleted == 0 {
		return 0, fmt.Errorf("admission %d: %w", hadmID, store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return summariesDeleted, nil
}

func admissionWhere(find *store.FindAdmission) (string, []any) {
	where := "1 = 1"
	var args []any

	next := func() int { return len(args) + 1 }

	if find.HadmID != nil {
		where += fmt.Sprintf(` AND "HADM_ID" = $%d`, next())
		args = append(args, *find.HadmID)
	}
	if find.Query != nil {
		n := next()
		where += fmt.Sprintf(` AND ("DIAGNOSIS" ILIKE '%%' || $%d || '%%' OR "ADMISSION_TYPE" ILIKE '%%' || $%d || '%%' OR "GENDER" ILIKE '%%' || $%d || '%%')`, n, n, n)
		args = append(args, *find.Query)
	}
	if find.Gender != nil {
		where += fmt.Sprintf(` AND "GENDER" = $%d`, next())
		args = append(args, *find.Gender)
	}
	if find.AdmissionType != nil {
		where += fmt.Sprintf(` AND "ADMISSION_TYPE" ILIKE '%%' || $%d || '%%'`, next())
		args = append(args, *find.AdmissionType)
	}
	if find.AgeMin != nil {
		where += fmt.Sprintf(` AND "AGE_CORRECTED" >= $%d`, next())
		args = append(args, *find.AgeMin)
	}
	if find.AgeMax != nil {
		where += fmt.Sprintf(` AND "AGE_CORRECTED" <= $%d`, next())
		args = append(args, *find.AgeMax)
	}

	return where, args
}

func scanAdmission(rows *sql.Rows) (*store.Admission, error) {
	var admission store.Admission
	var age sql.NullInt32
	var edLOS, totalLOS sql.NullFloat64
	var charttime sql.NullInt64
	if err := rows.Scan(
		&admission.HadmID,
		&admission.SubjectID,
		&admission.Gender,
		&age,
		&admission.AdmissionType,
		&admission.Diagnosis,
		&admission.HospitalExpireFlag,
		&edLOS,
		&totalLOS,
		&charttime,
		&admission.Category,
		&admission.Description,
		&admission.Text,
	); err != nil {
		return nil, err
	}
	if age.Valid {
		admission.Age = &age.Int32
	}
	if edLOS.Valid {
		admission.EDLOSHours = &edLOS.Float64
	}
	if totalLOS.Valid {
		admission.TotalLOSHours = &totalLOS.Float64
	}
	if charttime.Valid {
		admission.CharttimeTs = &charttime.Int64
	}
	return &admission, nil
}
