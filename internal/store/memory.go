package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/agriform/internal/dialogue"
)

// Memory keeps sessions and records in process. It is used when no
// database is configured and loses everything on restart.
type Memory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*dialogue.Session
	records  map[uuid.UUID]FarmRecord // keyed by session id
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[uuid.UUID]*dialogue.Session),
		records:  make(map[uuid.UUID]FarmRecord),
		now:      time.Now,
	}
}

func (m *Memory) SaveSession(_ context.Context, sess *dialogue.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = copySession(sess)
	return nil
}

// GetSession returns a copy; changes are only visible after SaveSession.
func (m *Memory) GetSession(_ context.Context, id uuid.UUID) (*dialogue.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(sess), nil
}

func (m *Memory) WriteRecord(_ context.Context, sess *dialogue.Session) (uuid.UUID, error) {
	rec, err := newFarmRecord(sess)
	if err != nil {
		return uuid.Nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[sess.ID]; ok {
		return existing.ID, nil
	}
	rec.CreatedAt = m.now()
	m.records[sess.ID] = rec
	return rec.ID, nil
}

func (m *Memory) ListRecords(_ context.Context, limit int) ([]FarmRecord, error) {
	m.mu.RLock()
	out := make([]FarmRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copySession(s *dialogue.Session) *dialogue.Session {
	cp := *s
	cp.Transcript = append([]dialogue.Entry(nil), s.Transcript...)
	cp.Insight = append([]byte(nil), s.Insight...)
	if len(cp.Insight) == 0 {
		cp.Insight = nil
	}
	return &cp
}
