package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
)

// SaveSession inserts or replaces a session.
func (s *Store) SaveSession(ctx context.Context, sess *dialogue.Session) error {
	record, err := json.Marshal(sess.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	transcript, err := json.Marshal(sess.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	var insight []byte
	if len(sess.Insight) > 0 {
		insight = sess.Insight
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (id, language, state, record, transcript, handoff, insight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			state = $3,
			record = $4,
			transcript = $5,
			handoff = $6,
			insight = $7,
			updated_at = $9`,
		sess.ID, sess.Language, sess.State.String(), record, transcript,
		string(sess.Handoff), insight, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*dialogue.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, language, state, record, transcript, handoff, insight, created_at, updated_at
		FROM sessions
		WHERE id = $1`,
		id,
	)

	var (
		sess                        dialogue.Session
		state, handoff              string
		record, transcript, insight []byte
	)
	err := row.Scan(&sess.ID, &sess.Language, &state, &record, &transcript, &handoff, &insight, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if err := sess.State.UnmarshalText([]byte(state)); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	if err := json.Unmarshal(record, &sess.Record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if err := json.Unmarshal(transcript, &sess.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	sess.Handoff = dialogue.HandoffStatus(handoff)
	if len(insight) > 0 {
		sess.Insight = insight
	}
	return &sess, nil
}
