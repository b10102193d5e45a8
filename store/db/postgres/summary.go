package postgres

import (
	"context"
	"fmt"

	"github.com/medforge/healthagent/store"
)

func (d *DB) CreateSummary(ctx context.Context, create *store.CreateSummary) (*store.Summary, error) {
	query := `
		INSERT INTO ai_summary (hadm_id, summary_text, original_length, processing_time, model_used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, hadm_id, summary_text, original_length, processing_time, model_used, created_ts
	`
	var summary store.Summary
	if err := d.db.QueryRowContext(ctx, query,
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

func (d *DB) ListSummaries(ctx context.Context, find *store.FindSummary) ([]*store.Summary, error) {
	query := `
		SELECT id, hadm_id, summary_text, original_length, processing_time, model_used, created_ts
		FROM ai_summary
		WHERE 1 = 1
	`
	var args []any

	if find.ID != nil {
		args = append(args, *find.ID)
		query += fmt.Sprintf(" AND id = $%d", len(args))
	}
	if find.HadmID != nil {
		args = append(args, *find.HadmID)
		query += fmt.Sprintf(" AND hadm_id = $%d", len(args))
	}

	query += " ORDER BY created_ts DESC, id DESC"

	if find.Limit != nil {
		args = append(args, *find.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
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
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return summaries, nil
}

func (d *DB) CountSummaries(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_summary`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", err)
	}
	return count, nil
}

func (d *DB) DeleteSummariesByAdmission(ctx context.Context, hadmID int32) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM ai_summary WHERE hadm_id = $1`, hadmID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete summaries: %w", err)
	}
	return result.RowsAffected()
}
