package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sysbro/internal/domain"

	"github.com/google/uuid"
)

type ProbeRepository struct {
	db *sql.DB
}

func NewProbeRepository(db *sql.DB) domain.ProbeRepository {
	return &ProbeRepository{db: db}
}

func (r *ProbeRepository) Save(ctx context.Context, rec domain.ProbeRecord) error {
	query := `
		INSERT INTO probe_history
			(id, server_index, url, state, peak_bps, formatted, samples, bytes_received, duration_ms, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.ServerIndex,
		rec.URL,
		rec.State.String(),
		int64(rec.PeakBytesPerSecond),
		rec.Formatted,
		rec.Samples,
		int64(rec.BytesReceived),
		rec.Duration.Milliseconds(),
		rec.Error,
		rec.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert probe record: %w", err)
	}
	return nil
}

func (r *ProbeRepository) List(ctx context.Context, limit int) ([]domain.ProbeRecord, error) {
	query := `
		SELECT id, server_index, url, state, peak_bps, formatted, samples, bytes_received, duration_ms, error, finished_at
		FROM probe_history
		ORDER BY finished_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query probe history: %w", err)
	}
	defer rows.Close()

	var records []domain.ProbeRecord
	for rows.Next() {
		var (
			rec                    domain.ProbeRecord
			id, state              string
			peak, bytes            int64
			durationMs, finishedAt int64
		)

		if err := rows.Scan(
			&id, &rec.ServerIndex, &rec.URL, &state, &peak, &rec.Formatted,
			&rec.Samples, &bytes, &durationMs, &rec.Error, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan probe record: %w", err)
		}

		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid probe id %q: %w", id, err)
		}
		rec.State = domain.ParseProbeState(state)
		rec.PeakBytesPerSecond = uint64(peak)
		rec.BytesReceived = uint64(bytes)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.FinishedAt = time.UnixMilli(finishedAt).UTC()

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *ProbeRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM probe_history WHERE finished_at < ?`, t.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune probe history: %w", err)
	}
	return res.RowsAffected()
}
