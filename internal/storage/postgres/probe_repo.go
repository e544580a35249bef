package postgres

import (
	"context"
	"fmt"
	"time"

	"sysbro/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProbeRepository struct {
	db *pgxpool.Pool
}

func NewProbeRepository(db *pgxpool.Pool) domain.ProbeRepository {
	return &ProbeRepository{db: db}
}

func (r *ProbeRepository) Save(ctx context.Context, rec domain.ProbeRecord) error {
	query := `
		INSERT INTO probe_history
			(id, server_index, url, state, peak_bps, formatted, samples, bytes_received, duration_ms, error, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.ServerIndex,
		rec.URL,
		rec.State.String(),
		int64(rec.PeakBytesPerSecond),
		rec.Formatted,
		rec.Samples,
		int64(rec.BytesReceived),
		rec.Duration.Milliseconds(),
		rec.Error,
		rec.FinishedAt,
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
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query probe history: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ProbeRecord, error) {
		var (
			rec         domain.ProbeRecord
			state       string
			peak, bytes int64
			durationMs  int64
		)

		err := row.Scan(
			&rec.ID, &rec.ServerIndex, &rec.URL, &state, &peak, &rec.Formatted,
			&rec.Samples, &bytes, &durationMs, &rec.Error, &rec.FinishedAt,
		)
		if err != nil {
			return rec, err
		}

		rec.State = domain.ParseProbeState(state)
		rec.PeakBytesPerSecond = uint64(peak)
		rec.BytesReceived = uint64(bytes)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan probe history: %w", err)
	}

	return records, nil
}

func (r *ProbeRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM probe_history WHERE finished_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("failed to prune probe history: %w", err)
	}
	return tag.RowsAffected(), nil
}
