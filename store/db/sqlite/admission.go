package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/medforge/healthagent/store"
)

// admissionColumns is the explicit mapping between the legacy MIMIC-III column
// names and the scan order used by scanAdmission.
const admissionColumns = `"HADM_ID", "SUBJECT_ID", "GENDER", "AGE_CORRECTED", "ADMISSION_TYPE", "DIAGNOSIS", "HOSPITAL_EXPIRE_FLAG", "ED_LOS_HOURS", "TOTAL_LOS_HOURS", "CHARTTIME", "CATEGORY", "DESCRIPTION", "TEXT"`

// CreateAdmission inserts a new admission row.
func (d *DB) CreateAdmission(ctx context.Context, create *store.Admission) (*store.Admission, error) {
	stmt := `
		INSERT INTO mimic_discharge_summaries (` + admissionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := d.db.ExecContext(ctx, stmt,
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

// ListAdmissions lists admissions matching the find condition.
func (d *DB) ListAdmissions(ctx context.Context, find *store.FindAdmission) ([]*store.Admission, error) {
	where, args := admissionWhere(find)

	query := `SELECT ` + admissionColumns + ` FROM mimic_discharge_summaries WHERE ` + where + ` ORDER BY "HADM_ID"`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list admissions")
	}
	defer rows.Close()

	var admissions []*store.Admission
	for rows.Next() {
		admission, err := scanAdmission(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan admission")
		}
		admissions = append(admissions, admission)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate admissions")
	}
	return admissions, nil
}

// CountAdmissions counts admissions matching the find condition, ignoring the
// limit.
func (d *DB) CountAdmissions(ctx context.Context, find *store.FindAdmission) (int64, error) {
	where, args := admissionWhere(find)

	var count int64
	query := `SELECT COUNT(*) FROM mimic_discharge_summaries WHERE ` + where
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count admissions")
	}
	return count, nil
}

// DeleteAdmission removes the admission and its summary rows in a single
// transaction and reports the summaries removed.
func (d *DB) DeleteAdmission(ctx context.Context, hadmID int32) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	summaryResult, err := tx.ExecContext(ctx, `DELETE FROM ai_summary WHERE hadm_id = ?`, hadmID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete summaries")
	}
	summariesDeleted, err := summaryResult.RowsAffected()
	if err != nil {
		return 0, err
	}

	admissionResult, err := tx.ExecContext(ctx, `DELETE FROM mimic_discharge_summaries WHERE "HADM_ID" = ?`, hadmID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete admission")
	}
	admissionsDeleted, err := admissionResult.RowsAffected()
	if err != nil {
		return 0, err
	}
	if admissionsDeleted == 0 {
		return 0, errors.Wrapf(store.ErrNotFound, "admission %d", hadmID)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit transaction")
	}
	return summariesDeleted, nil
}

func admissionWhere(find *store.FindAdmission) (string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if find.HadmID != nil {
		where, args = append(where, `"HADM_ID" = ?`), append(args, *find.HadmID)
	}
	if find.Query != nil {
		// LIKE is case-insensitive for ASCII in SQLite.
		where = append(where, `("DIAGNOSIS" LIKE '%' || ? || '%' OR "ADMISSION_TYPE" LIKE '%' || ? || '%' OR "GENDER" LIKE '%' || ? || '%')`)
		args = append(args, *find.Query, *find.Query, *find.Query)
	}
	if find.Gender != nil {
		where, args = append(where, `"GENDER" = ?`), append(args, *find.Gender)
	}
	if find.AdmissionType != nil {
		where, args = append(where, `"ADMISSION_TYPE" LIKE '%' || ? || '%'`), append(args, *find.AdmissionType)
	}
	if find.AgeMin != nil {
		where, args = append(where, `"AGE_CORRECTED" >= ?`), append(args, *find.AgeMin)
	}
	if find.AgeMax != nil {
		where, args = append(where, `"AGE_CORRECTED" <= ?`), append(args, *find.AgeMax)
	}

	clause := where[0]
	for _, w := range where[1:] {
		clause += " AND " + w
	}
	return clause, args
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
