// Package store persists conversation sessions and completed farm records.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
)

//go:embed schema.sql
var schemaSQL string

var (
	ErrNotFound         = errors.New("not found")
	ErrIncompleteRecord = errors.New("record is incomplete")
)

// FarmRecord is a completed record as stored for downstream use.
type FarmRecord struct {
	ID            uuid.UUID `json:"id"`
	SessionID     uuid.UUID `json:"session_id"`
	Language      string    `json:"language"`
	District      string    `json:"district"`
	State         string    `json:"state"`
	FarmSizeAcres float64   `json:"farm_size_acres"`
	CropType      string    `json:"crop_type"`
	SowingDate    string    `json:"sowing_date"`
	CreatedAt     time.Time `json:"created_at"`
}

func newFarmRecord(s *dialogue.Session) (FarmRecord, error) {
	r := s.Record
	if !r.Complete() {
		return FarmRecord{}, ErrIncompleteRecord
	}
	return FarmRecord{
		ID:            uuid.New(),
		SessionID:     s.ID,
		Language:      s.Language,
		District:      *r.District,
		State:         *r.State,
		FarmSizeAcres: *r.FarmSizeAcres,
		CropType:      *r.CropType,
		SowingDate:    *r.SowingDate,
	}, nil
}

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
