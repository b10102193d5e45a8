package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/medforge/healthagent/store"
)

// CreateSummary inserts a new summary row. The unique constraint on hadm_id
// turns a concurrent duplicate insert into store.ErrAlreadyExists.
func (d *DB) CreateSummary(ctx context.Context, create *store.CreateSummary) (*store.Summary, error) {
	stmt := `
		INSERT INTO ai_summary (hadm_id, summary_text, original_length, processing_time, model_used)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, hadm_id, summary_text, original_length, processing_time, model_used, created_ts
	`
	var summary store.Summary
	if err := d.db.QueryRowContext(ctx, stmt,
		create.HadmID,
		create.SummaryText,
		create.OriginalLength,
		create.ProcessingTime,
		create.ModelUsed,
	).Scan(
		&summary.ID,
		&summary.HadmID,
		&summary.SummaryText,
		&summary.OriginalLength,
		&summary.ProcessingTime,
		&summary.ModelUsed,
		&summary.CreatedTs,
	); err != nil {
		return nil, translateError(err, "failed to create summary")
	}
	return &summary, nil
}

// ListSummaries lists summaries, newest first with identifier as tie breaker.
func (d *DB) ListSummaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.HadmID != nil {
		where, args = append(where, "hadm_id = ?"), append(args, *find.HadmID)
	}

	query := `SELECT id, hadm_id, summary_text, original_length, processing_time, model_used, created_ts
		FROM ai_summary
		WHERE ` + where[0]
	for _, w := range where[1:] {
		query += " AND " + w
	}
	query += " ORDER BY created_ts DESC, id DESC"

	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list summaries")
	}
	defer rows.Close()

	var summaries []*store.Summary
	for rows.Next() {
		var summary store.Summary
		if err := rows.Scan(
			&summary.ID,
			&summary.HadmID,
			&summary.SummaryText,
			&summary.OriginalLength,
			&summary.ProcessingTime,
			&summary.ModelUsed,
			&summary.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan summary")
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate summaries")
	}
	return summaries, nil
}

// CountSummaries returns the total number of summary rows.
func (d *DB) CountSummaries(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_summary`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count summaries")
	}
	return count, nil
}

// DeleteSummariesByAdmission deletes the summary rows for an admission and
// returns the count removed. Zero rows is not an error.
func (d *DB) DeleteSummariesByAdmission(ctx context.Context, hadmID int32) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM ai_summary WHERE hadm_id = ?`, hadmID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete summaries")
	}
	return result.RowsAffected()
}
