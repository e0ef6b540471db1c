package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the shared persistence contract for rooms and attempts. Every
// mutation is a single-row guarded update: the WHERE clause carries the
// transition's precondition, so two racing clients can never both apply
// the same transition. There are no multi-row transactions.
type Store interface {
	// Create inserts a new waiting room. A code collision surfaces as
	// ErrCodeTaken so the caller can regenerate and retry.
	Create(ctx context.Context, r *Room) error

	// GetByCode fetches the current row, or ErrNotFound.
	GetByCode(ctx context.Context, code string) (*Room, error)

	// Join seats a second player, guarded by status=waiting and an empty
	// second seat. On failure the room is re-read to report the precise
	// reason (ErrNotFound, ErrStarted, ErrRoomFull).
	Join(ctx context.Context, code, playerID, playerName string) error

	// Start moves a waiting room with two players to playing, stamping
	// started_at and the first word's word_started_at.
	Start(ctx context.Context, code string, now time.Time) error

	// Advance applies the award-and-advance transition as one conditional
	// update: guarded by status=playing and current_word_index=fromIndex,
	// it bumps the winner's score (winnerSeat 1 or 2; 0 for a timeout),
	// and either increments the index with a fresh word_started_at or,
	// when final, finishes the room. Returns false without error when the
	// guard failed because another client advanced first.
	Advance(ctx context.Context, code string, fromIndex, winnerSeat int, final bool, now time.Time) (bool, error)

	// InsertAttempt appends one guess record.
	InsertAttempt(ctx context.Context, a *Attempt) error

	// DeleteStale removes unfinished rooms whose last update predates
	// cutoff, returning how many were reaped.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormStore implements Store on a relational database via GORM.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm opens the database with the settings the store depends on:
// TranslateError makes drivers without a typed duplicate-key error
// (sqlite) surface gorm.ErrDuplicatedKey, which Create maps to
// ErrCodeTaken.
func OpenGorm(dialector gorm.Dialector) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("room: open database: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore migrates the schema and returns a ready store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Room{}, &Attempt{}); err != nil {
		return nil, fmt.Errorf("room: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, r *Room) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if isDuplicate(err) {
			return ErrCodeTaken
		}
		return fmt.Errorf("room: create %s: %w", r.Code, err)
	}
	return nil
}

func (s *GormStore) GetByCode(ctx context.Context, code string) (*Room, error) {
	var r Room
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("room: get %s: %w", code, err)
	}
	return &r, nil
}

func (s *GormStore) Join(ctx context.Context, code, playerID, playerName string) error {
	res := s.db.WithContext(ctx).Model(&Room{}).
		Where("code = ? AND status = ? AND player2_id IS NULL", code, StatusWaiting).
		Updates(map[string]any{
			"player2_id":   playerID,
			"player2_name": playerName,
		})
	if res.Error != nil {
		return fmt.Errorf("room: join %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.joinFailure(ctx, code)
	}
	return nil
}

// joinFailure re-reads the row to explain why the guarded join missed.
func (s *GormStore) joinFailure(ctx context.Context, code string) error {
	r, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := r.CanJoin(); err != nil {
		return err
	}
	return ErrRoomFull
}

func (s *GormStore) Start(ctx context.Context, code string, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&Room{}).
		Where("code = ? AND status = ? AND player2_id IS NOT NULL", code, StatusWaiting).
		Updates(map[string]any{
			"status":             StatusPlaying,
			"started_at":         now,
			"word_started_at":    now,
			"current_word_index": 0,
		})
	if res.Error != nil {
		return fmt.Errorf("room: start %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		r, err := s.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if r.Status != StatusWaiting {
			return ErrStarted
		}
		return ErrNoOpponent
	}
	return nil
}

func (s *GormStore) Advance(ctx context.Context, code string, fromIndex, winnerSeat int, final bool, now time.Time) (bool, error) {
	updates := map[string]any{}
	switch winnerSeat {
	case 1:
		updates["player1_score"] = gorm.Expr("player1_score + ?", 10)
	case 2:
		updates["player2_score"] = gorm.Expr("player2_score + ?", 10)
	}
	if final {
		updates["status"] = StatusFinished
		updates["finished_at"] = now
	} else {
		updates["current_word_index"] = fromIndex + 1
		updates["word_started_at"] = now
	}

	res := s.db.WithContext(ctx).Model(&Room{}).
		Where("code = ? AND status = ? AND current_word_index = ?", code, StatusPlaying, fromIndex).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("room: advance %s from %d: %w", code, fromIndex, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) InsertAttempt(ctx context.Context, a *Attempt) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("room: insert attempt: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status <> ? AND updated_at < ?", StatusFinished, cutoff).
		Delete(&Room{})
	if res.Error != nil {
		return 0, fmt.Errorf("room: delete stale: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// isDuplicate recognizes a unique-constraint violation: MySQL's errno
// 1062, or gorm's translated ErrDuplicatedKey for the other drivers
// (requires TranslateError, which OpenGorm sets).
func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
