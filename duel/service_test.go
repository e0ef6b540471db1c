package duel

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"miladuel/realtime"
	"miladuel/room"
	"miladuel/words"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, opts Options) (*Service, *room.MemStore, *realtime.Broadcaster) {
	t.Helper()
	store := room.NewMemStore()
	bus := realtime.NewBroadcaster()
	catalog := words.NewCache(words.FileProvider{}, time.Minute)
	return NewService(store, bus, catalog, quietLogger(), opts), store, bus
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{WordsPerMatch: 9})

	r, err := svc.CreateRoom(ctx, "host-id", "דנה")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(r.Code) != room.CodeLength {
		t.Errorf("code %q has length %d", r.Code, len(r.Code))
	}
	if r.Status != room.StatusWaiting {
		t.Errorf("status = %s, want waiting", r.Status)
	}
	if len(r.WordsOrder) != 9 {
		t.Errorf("%d words selected, want 9", len(r.WordsOrder))
	}
	seen := make(map[string]bool)
	for _, w := range r.WordsOrder {
		if seen[w] {
			t.Errorf("word %q selected twice", w)
		}
		seen[w] = true
	}
}

// collideStore forces Create to report code collisions a few times.
type collideStore struct {
	room.Store
	collisions int
}

func (s *collideStore) Create(ctx context.Context, r *room.Room) error {
	if s.collisions > 0 {
		s.collisions--
		return room.ErrCodeTaken
	}
	return s.Store.Create(ctx, r)
}

func TestCreateRoomRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	store := &collideStore{Store: room.NewMemStore(), collisions: 3}
	catalog := words.NewCache(words.FileProvider{}, time.Minute)
	svc := NewService(store, realtime.NewBroadcaster(), catalog, quietLogger(), Options{WordsPerMatch: 3})

	r, err := svc.CreateRoom(ctx, "host-id", "דנה")
	if err != nil {
		t.Fatalf("CreateRoom with collisions: %v", err)
	}
	if r.Code == "" {
		t.Error("no code assigned")
	}
}

func TestCreateRoomGivesUpEventually(t *testing.T) {
	ctx := context.Background()
	store := &collideStore{Store: room.NewMemStore(), collisions: createRetries + 1}
	catalog := words.NewCache(words.FileProvider{}, time.Minute)
	svc := NewService(store, realtime.NewBroadcaster(), catalog, quietLogger(), Options{WordsPerMatch: 3})

	if _, err := svc.CreateRoom(ctx, "host-id", "דנה"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{WordsPerMatch: 3})
	r, err := svc.CreateRoom(ctx, "host-id", "דנה")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	joined, err := svc.JoinRoom(ctx, r.Code, "guest-id", "יואב")
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if joined.Player2ID == nil || *joined.Player2ID != "guest-id" {
		t.Error("guest not seated")
	}

	// Rejoining returns the room unchanged rather than failing.
	again, err := svc.JoinRoom(ctx, r.Code, "guest-id", "יואב")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.Player2ID == nil || *again.Player2ID != "guest-id" {
		t.Error("rejoin lost the seat")
	}

	if _, err := svc.JoinRoom(ctx, r.Code, "third-id", "עוד"); !errors.Is(err, room.ErrRoomFull) {
		t.Errorf("third join: got %v, want ErrRoomFull", err)
	}
	if _, err := svc.JoinRoom(ctx, "ZZZZZ", "guest-id", "יואב"); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("unknown code: got %v, want ErrNotFound", err)
	}
}

func TestStartMatchHostOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, Options{WordsPerMatch: 3})
	r, _ := svc.CreateRoom(ctx, "host-id", "דנה")

	if err := svc.StartMatch(ctx, r.Code, "host-id", time.Now()); !errors.Is(err, room.ErrNoOpponent) {
		t.Errorf("start without opponent: got %v, want ErrNoOpponent", err)
	}

	if _, err := svc.JoinRoom(ctx, r.Code, "guest-id", "יואב"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.StartMatch(ctx, r.Code, "guest-id", time.Now()); !errors.Is(err, room.ErrNotHost) {
		t.Errorf("guest start: got %v, want ErrNotHost", err)
	}
	if err := svc.StartMatch(ctx, r.Code, "host-id", time.Now()); err != nil {
		t.Fatalf("host start: %v", err)
	}
	if err := svc.StartMatch(ctx, r.Code, "host-id", time.Now()); !errors.Is(err, room.ErrStarted) {
		t.Errorf("double start: got %v, want ErrStarted", err)
	}
}

func playingRoom(t *testing.T, svc *Service) *room.Room {
	t.Helper()
	ctx := context.Background()
	r, err := svc.CreateRoom(ctx, "host-id", "דנה")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := svc.JoinRoom(ctx, r.Code, "guest-id", "יואב"); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if err := svc.StartMatch(ctx, r.Code, "host-id", time.Now()); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	r, err = svc.Room(ctx, r.Code)
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	return r
}

func TestSubmitGuess(t *testing.T) {
	ctx := context.Background()
	svc, store, bus := newTestService(t, Options{WordsPerMatch: 3})
	r := playingRoom(t, svc)

	events, cancel, err := bus.Subscribe(ctx, r.Code)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	correct, err := svc.SubmitGuess(ctx, r, "guest-id", "לא נכון בכלל")
	if err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	if correct {
		t.Error("wild guess accepted")
	}

	target := r.WordsOrder[0]
	correct, err = svc.SubmitGuess(ctx, r, "guest-id", target)
	if err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	if !correct {
		t.Errorf("exact guess %q rejected", target)
	}

	// A single-typo guess is accepted too.
	correct, err = svc.SubmitGuess(ctx, r, "host-id", target+"x")
	if err != nil {
		t.Fatalf("SubmitGuess: %v", err)
	}
	if !correct {
		t.Errorf("near-miss %q rejected", target+"x")
	}

	if _, err := svc.SubmitGuess(ctx, r, "stranger", target); !errors.Is(err, room.ErrNotSeated) {
		t.Errorf("stranger guess: got %v, want ErrNotSeated", err)
	}

	attempts := store.Attempts()
	if len(attempts) != 3 {
		t.Fatalf("%d attempts recorded, want 3", len(attempts))
	}
	if attempts[0].IsCorrect || !attempts[1].IsCorrect || !attempts[2].IsCorrect {
		t.Error("correctness flags wrong")
	}

	for i := 0; i < 3; i++ {
		select {
		case ev := <-events:
			if ev.Type != realtime.EventAttempt {
				t.Errorf("event %d type %s, want attempt", i, ev.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("attempt event %d not published", i)
		}
	}
}

func TestAdvancePublishesRoom(t *testing.T) {
	ctx := context.Background()
	svc, _, bus := newTestService(t, Options{WordsPerMatch: 3})
	r := playingRoom(t, svc)

	events, cancel, err := bus.Subscribe(ctx, r.Code)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	ok, err := svc.Advance(ctx, r.Code, 0, 2, false, time.Now())
	if err != nil || !ok {
		t.Fatalf("Advance: ok=%v err=%v", ok, err)
	}

	select {
	case ev := <-events:
		if ev.Type != realtime.EventRoom {
			t.Fatalf("event type %s, want room", ev.Type)
		}
		if ev.Room.CurrentWordIndex != 1 || ev.Room.Player2Score != 10 {
			t.Errorf("published index=%d p2=%d, want 1/10",
				ev.Room.CurrentWordIndex, ev.Room.Player2Score)
		}
	case <-time.After(time.Second):
		t.Fatal("room event not published")
	}

	// Losing the compare-and-swap publishes nothing and is not an error.
	ok, err = svc.Advance(ctx, r.Code, 0, 1, false, time.Now())
	if err != nil {
		t.Fatalf("stale Advance: %v", err)
	}
	if ok {
		t.Error("stale advance won")
	}
	select {
	case ev := <-events:
		t.Errorf("stale advance published %+v", ev)
	default:
	}
}
