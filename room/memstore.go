package room

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory Store for single-process deployments and
// tests. It applies the same guarded-transition semantics as the
// database-backed store, just under one mutex instead of a WHERE clause.
type MemStore struct {
	mu       sync.Mutex
	nextID   uint
	rooms    map[string]*Room
	attempts []Attempt
}

func NewMemStore() *MemStore {
	return &MemStore{rooms: make(map[string]*Room)}
}

func (s *MemStore) Create(_ context.Context, r *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.Code]; ok {
		return ErrCodeTaken
	}
	s.nextID++
	r.ID = s.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	s.rooms[r.Code] = &cp
	return nil
}

func (s *MemStore) GetByCode(_ context.Context, code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemStore) Join(_ context.Context, code, playerID, playerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if err := r.CanJoin(); err != nil {
		return err
	}
	id, name := playerID, playerName
	r.Player2ID = &id
	r.Player2Name = &name
	r.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) Start(_ context.Context, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if r.Status != StatusWaiting {
		return ErrStarted
	}
	if r.Player2ID == nil {
		return ErrNoOpponent
	}
	at := now
	r.Status = StatusPlaying
	r.StartedAt = &at
	r.WordStartedAt = &at
	r.CurrentWordIndex = 0
	r.UpdatedAt = now
	return nil
}

func (s *MemStore) Advance(_ context.Context, code string, fromIndex, winnerSeat int, final bool, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return false, ErrNotFound
	}
	if r.Status != StatusPlaying || r.CurrentWordIndex != fromIndex {
		return false, nil
	}
	switch winnerSeat {
	case 1:
		r.Player1Score += 10
	case 2:
		r.Player2Score += 10
	}
	if final {
		at := now
		r.Status = StatusFinished
		r.FinishedAt = &at
	} else {
		at := now
		r.CurrentWordIndex = fromIndex + 1
		r.WordStartedAt = &at
	}
	r.UpdatedAt = now
	return true, nil
}

func (s *MemStore) InsertAttempt(_ context.Context, a *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uint(len(s.attempts) + 1)
	a.CreatedAt = time.Now()
	s.attempts = append(s.attempts, *a)
	return nil
}

func (s *MemStore) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reaped int64
	for code, r := range s.rooms {
		if r.Status != StatusFinished && r.UpdatedAt.Before(cutoff) {
			delete(s.rooms, code)
			reaped++
		}
	}
	return reaped, nil
}

// Attempts returns a copy of the recorded attempts, oldest first.
func (s *MemStore) Attempts() []Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}
