package room

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
)

func newSqliteStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := OpenGorm(sqlite.Open(filepath.Join(t.TempDir(), "rooms.db")))
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	return s
}

// A code collision on the real database must come back as ErrCodeTaken,
// not the driver's raw unique-constraint error, or the caller's
// regenerate-and-retry loop never sees it.
func TestGormStoreCreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	s := newSqliteStore(t)

	first := &Room{
		Code:        "AAAAA",
		Status:      StatusWaiting,
		Player1ID:   "host-id",
		Player1Name: "דנה",
		WordsOrder:  []string{"מילה"},
	}
	if err := s.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &Room{
		Code:        "AAAAA",
		Status:      StatusWaiting,
		Player1ID:   "guest-id",
		Player1Name: "יואב",
		WordsOrder:  []string{"מילה"},
	}
	if err := s.Create(ctx, dup); !errors.Is(err, ErrCodeTaken) {
		t.Errorf("duplicate create: got %v, want ErrCodeTaken", err)
	}
}

// The guarded transitions behave the same over SQL as over the memory
// store.
func TestGormStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSqliteStore(t)
	r := startedRoom(t, s, 3)

	if err := s.Join(ctx, r.Code, "late", "מאחר"); !errors.Is(err, ErrStarted) {
		t.Errorf("join after start: got %v, want ErrStarted", err)
	}

	ok, err := s.Advance(ctx, r.Code, 0, 1, false, time.Now())
	if err != nil || !ok {
		t.Fatalf("advance 0: ok=%v err=%v", ok, err)
	}
	if ok, err = s.Advance(ctx, r.Code, 0, 2, false, time.Now()); err != nil {
		t.Fatalf("stale advance: %v", err)
	} else if ok {
		t.Fatal("stale advance was applied")
	}

	got, err := s.GetByCode(ctx, r.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentWordIndex != 1 || got.Player1Score != 10 || got.Player2Score != 0 {
		t.Errorf("after advance: index=%d scores=%d/%d, want 1 and 10/0",
			got.CurrentWordIndex, got.Player1Score, got.Player2Score)
	}
}
