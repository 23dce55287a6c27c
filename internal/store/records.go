package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
)

// WriteRecord stores the completed record of a session. Writing the same
// session twice keeps the first row and returns its id.
func (s *Store) WriteRecord(ctx context.Context, sess *dialogue.Session) (uuid.UUID, error) {
	rec, err := newFarmRecord(sess)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx, `
		INSERT INTO farm_records (id, session_id, language, district, state, farm_size_acres, crop_type, sowing_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING id`,
		rec.ID, rec.SessionID, rec.Language, rec.District, rec.State,
		rec.FarmSizeAcres, rec.CropType, rec.SowingDate,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert farm record: %w", err)
	}
	return id, nil
}

// ListRecords returns the most recent records first.
func (s *Store) ListRecords(ctx context.Context, limit int) ([]FarmRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, language, district, state, farm_size_acres, crop_type, sowing_date, created_at
		FROM farm_records
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query farm records: %w", err)
	}
	defer rows.Close()

	var out []FarmRecord
	for rows.Next() {
		var r FarmRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Language, &r.District, &r.State,
			&r.FarmSizeAcres, &r.CropType, &r.SowingDate, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan farm record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
