// Package duel runs the multiplayer word-duel: match setup, guess
// arbitration against the shared room row, and the per-connection
// controller that keeps a browser in sync with the room.
package duel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"miladuel/answer"
	"miladuel/realtime"
	"miladuel/room"
	"miladuel/words"
)

// createRetries bounds how many fresh codes Create tries before giving
// up on a pathologically full code space.
const createRetries = 10

// Options carries the match timing knobs. Zero values take defaults.
type Options struct {
	WordsPerMatch int           // words selected per match
	WordDuration  time.Duration // time budget per word
	PollInterval  time.Duration // polling fallback cadence
	AdvanceDelay  time.Duration // celebration pause after a correct answer
	Countdown     time.Duration // local pre-match countdown
}

func (o Options) withDefaults() Options {
	if o.WordsPerMatch <= 0 {
		o.WordsPerMatch = 30
	}
	if o.WordDuration <= 0 {
		o.WordDuration = 30 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.AdvanceDelay <= 0 {
		o.AdvanceDelay = 2 * time.Second
	}
	if o.Countdown <= 0 {
		o.Countdown = 3 * time.Second
	}
	return o
}

// Service owns the duel operations shared by every connection: room
// creation and membership, guess arbitration, and the guarded advance.
type Service struct {
	store   room.Store
	channel realtime.Channel
	catalog *words.Cache
	log     *logrus.Logger
	opts    Options
}

func NewService(store room.Store, channel realtime.Channel, catalog *words.Cache, log *logrus.Logger, opts Options) *Service {
	return &Service{
		store:   store,
		channel: channel,
		catalog: catalog,
		log:     log,
		opts:    opts.withDefaults(),
	}
}

func (s *Service) Options() Options { return s.opts }

// CreateRoom selects the match's word order up front and inserts a
// waiting room, regenerating the code on a collision.
func (s *Service) CreateRoom(ctx context.Context, playerID, playerName string) (*room.Room, error) {
	catalog, err := s.catalog.Get(ctx)
	if err != nil {
		return nil, err
	}
	selected := words.Select(catalog, s.opts.WordsPerMatch)
	if len(selected) == 0 {
		return nil, errors.New("duel: word catalog is empty")
	}
	order := make([]string, len(selected))
	for i, w := range selected {
		order[i] = w.Word
	}

	for attempt := 0; attempt < createRetries; attempt++ {
		r := &room.Room{
			Code:        room.NewCode(),
			Status:      room.StatusWaiting,
			Player1ID:   playerID,
			Player1Name: playerName,
			WordsOrder:  order,
		}
		err := s.store.Create(ctx, r)
		if err == nil {
			s.log.WithFields(logrus.Fields{"room": r.Code, "words": len(order)}).
				Info("DUEL: room created")
			return r, nil
		}
		if !errors.Is(err, room.ErrCodeTaken) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("duel: no free room code after %d attempts", createRetries)
}

// JoinRoom seats playerID in the room's second seat. Rejoining a room
// the player already sits in is a no-op returning the current state.
func (s *Service) JoinRoom(ctx context.Context, code, playerID, playerName string) (*room.Room, error) {
	r, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if r.Seated(playerID) {
		return r, nil
	}
	if err := s.store.Join(ctx, code, playerID, playerName); err != nil {
		return nil, err
	}
	r, err = s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.publishRoom(ctx, r)
	s.log.WithFields(logrus.Fields{"room": code, "player": playerName}).
		Info("DUEL: player joined")
	return r, nil
}

// StartMatch begins play. Host-only, and only once both seats are taken.
func (s *Service) StartMatch(ctx context.Context, code, playerID string, now time.Time) error {
	r, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := r.CanStart(playerID); err != nil {
		return err
	}
	if err := s.store.Start(ctx, code, now); err != nil {
		return err
	}
	r, err = s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	s.publishRoom(ctx, r)
	s.log.WithField("room", code).Info("DUEL: match started")
	return nil
}

// SubmitGuess records an attempt against the room's current word and
// reports whether it was correct. It does not advance the room; the
// caller schedules the advance so the celebration pause can elapse
// first.
func (s *Service) SubmitGuess(ctx context.Context, r *room.Room, playerID, guess string) (bool, error) {
	if r.Status == room.StatusFinished {
		return false, room.ErrFinished
	}
	if !r.Seated(playerID) {
		return false, room.ErrNotSeated
	}
	target, ok := r.CurrentWord()
	if !ok {
		return false, fmt.Errorf("duel: room %s has no word at index %d", r.Code, r.CurrentWordIndex)
	}

	var synonyms []string
	if catalog, err := s.catalog.Get(ctx); err == nil {
		if w, found := catalog.Lookup(target); found {
			synonyms = w.Synonyms
		}
	}
	correct := answer.Matches(guess, target, synonyms)

	a := &room.Attempt{
		RoomID:    r.ID,
		RoomCode:  r.Code,
		PlayerID:  playerID,
		WordIndex: r.CurrentWordIndex,
		Guess:     guess,
		IsCorrect: correct,
	}
	if err := s.store.InsertAttempt(ctx, a); err != nil {
		return false, err
	}
	if err := s.channel.Publish(ctx, r.Code, realtime.Event{
		Type:     realtime.EventAttempt,
		RoomCode: r.Code,
		Attempt:  a,
		PlayerID: playerID,
	}); err != nil {
		s.log.WithError(err).WithField("room", r.Code).Warn("DUEL: attempt publish failed")
	}
	return correct, nil
}

// Advance applies one guarded award-and-advance transition and, when it
// wins the compare-and-swap, broadcasts the fresh room. winnerSeat 0
// means a timeout advance with no award. Losing the swap is not an
// error; some other connection already moved the match on.
func (s *Service) Advance(ctx context.Context, code string, fromIndex, winnerSeat int, final bool, now time.Time) (bool, error) {
	ok, err := s.store.Advance(ctx, code, fromIndex, winnerSeat, final, now)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	r, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return true, err
	}
	s.publishRoom(ctx, r)
	if final {
		s.log.WithFields(logrus.Fields{
			"room":    code,
			"player1": r.Player1Score,
			"player2": r.Player2Score,
		}).Info("DUEL: match finished")
	}
	return true, nil
}

// PublishTyping broadcasts an ephemeral typing signal for playerID.
func (s *Service) PublishTyping(ctx context.Context, code, playerID string) {
	err := s.channel.Publish(ctx, code, realtime.Event{
		Type:     realtime.EventTyping,
		RoomCode: code,
		PlayerID: playerID,
	})
	if err != nil {
		s.log.WithError(err).WithField("room", code).Debug("DUEL: typing publish failed")
	}
}

// WordFor resolves a word text to its full catalog entry, for
// descriptions and hints. Missing words degrade to a bare entry.
func (s *Service) WordFor(ctx context.Context, text string) words.Word {
	if catalog, err := s.catalog.Get(ctx); err == nil {
		if w, ok := catalog.Lookup(text); ok {
			return w
		}
	}
	return words.Word{Word: text}
}

// Room fetches the current authoritative row.
func (s *Service) Room(ctx context.Context, code string) (*room.Room, error) {
	return s.store.GetByCode(ctx, code)
}

func (s *Service) publishRoom(ctx context.Context, r *room.Room) {
	err := s.channel.Publish(ctx, r.Code, realtime.Event{
		Type:     realtime.EventRoom,
		RoomCode: r.Code,
		Room:     r,
	})
	if err != nil {
		s.log.WithError(err).WithField("room", r.Code).Warn("DUEL: room publish failed")
	}
}
