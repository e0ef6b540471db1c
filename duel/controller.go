package duel

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"miladuel/answer"
	"miladuel/realtime"
	"miladuel/room"
	"miladuel/words"
)

// Phase is a connection's local view of the match lifecycle. It is
// derived from the authoritative room status and never regresses.
type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

func phaseRank(p Phase) int {
	switch p {
	case PhaseWaiting:
		return 1
	case PhaseCountdown:
		return 2
	case PhasePlaying:
		return 3
	case PhaseFinished:
		return 4
	default:
		return 0
	}
}

// typingTTL is how long a typing indicator stays lit after the last
// signal.
const typingTTL = time.Second

// ClientMessage is one frame from the browser.
type ClientMessage struct {
	Type  string `json:"type"` // start | guess | hint | typing
	Guess string `json:"guess,omitempty"`
}

// RoomView is the room snapshot sent to browsers. It deliberately omits
// WordsOrder; clients must not see upcoming answers.
type RoomView struct {
	Code             string      `json:"code"`
	Status           room.Status `json:"status"`
	Player1Name      string      `json:"player1_name"`
	Player2Name      string      `json:"player2_name,omitempty"`
	Player1Score     int         `json:"player1_score"`
	Player2Score     int         `json:"player2_score"`
	CurrentWordIndex int         `json:"current_word_index"`
	TotalWords       int         `json:"total_words"`
	FinishedAt       *time.Time  `json:"finished_at,omitempty"`
}

// State is the full client-facing view pushed on every change.
type State struct {
	Phase       Phase     `json:"phase"`
	Room        *RoomView `json:"room,omitempty"`
	Seat        int       `json:"seat"`
	TimeLeft    int       `json:"time_left"`
	Countdown   int       `json:"countdown,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Hints       []string  `json:"hints,omitempty"`
	HintsLeft   int       `json:"hints_left"`
}

// ServerMessage is one frame to the browser.
type ServerMessage struct {
	Type     string        `json:"type"` // state | attempt | typing | result | error
	State    *State        `json:"state,omitempty"`
	Attempt  *room.Attempt `json:"attempt,omitempty"`
	PlayerID string        `json:"player_id,omitempty"`
	Correct  *bool         `json:"correct,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// pendingAdvance is a scheduled award-and-advance write, delayed so the
// winner gets a moment of celebration before the next word appears.
type pendingAdvance struct {
	at         time.Time
	fromIndex  int
	winnerSeat int
	final      bool
}

// Controller synchronizes one connection with its room. Every source of
// room state (the initial fetch, pushed events, and polls) funnels
// through applyRoom, so there is exactly one reconciliation path. Two
// controllers never talk to each other; the room row and the broadcast
// channel are the only shared state.
type Controller struct {
	svc      *Service
	code     string
	playerID string
	send     func(ServerMessage)
	now      func() time.Time
	log      *logrus.Entry

	phase         Phase
	room          *room.Room
	countdownEnds time.Time
	hintsUsed     int
	answered      bool // this player solved the current word
	answeredIndex int  // latest index anyone was seen solving
	pending       *pendingAdvance
	typingFrom    string
	typingEnds    time.Time
	lastTimeLeft  int
}

// NewController builds a controller for one connection. send delivers
// frames to the browser and must not block.
func NewController(svc *Service, code, playerID string, send func(ServerMessage)) *Controller {
	return &Controller{
		svc:           svc,
		code:          code,
		playerID:      playerID,
		send:          send,
		now:           time.Now,
		log:           svc.log.WithFields(logrus.Fields{"room": code, "player": playerID}),
		phase:         PhaseLoading,
		answeredIndex: -1,
		lastTimeLeft:  -1,
	}
}

// Run drives the controller until ctx is cancelled or the incoming
// channel closes. On return the subscription and all tickers are
// released; a detached controller can never write to its room again.
func (c *Controller) Run(ctx context.Context, incoming <-chan ClientMessage) error {
	events, cancel, err := c.svc.channel.Subscribe(ctx, c.code)
	if err != nil {
		return err
	}
	defer cancel()

	c.PollOnce(ctx)

	poll := time.NewTicker(c.svc.opts.PollInterval)
	defer poll.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-incoming:
			if !ok {
				return nil
			}
			c.HandleClient(ctx, msg)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.HandleEvent(ctx, ev)
		case <-poll.C:
			c.PollOnce(ctx)
		case <-tick.C:
			c.Tick(ctx)
		}
	}
}

// PollOnce fetches the authoritative row. Push delivery is best-effort;
// this is the correctness backstop.
func (c *Controller) PollOnce(ctx context.Context) {
	r, err := c.svc.Room(ctx, c.code)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			c.sendError("room no longer exists")
			return
		}
		c.log.WithError(err).Warn("DUEL: poll failed")
		return
	}
	c.applyRoom(r)
}

// HandleEvent processes one pushed event from the room channel.
func (c *Controller) HandleEvent(ctx context.Context, ev realtime.Event) {
	switch ev.Type {
	case realtime.EventRoom:
		if ev.Room != nil {
			c.applyRoom(ev.Room)
		}
	case realtime.EventAttempt:
		if ev.Attempt == nil {
			return
		}
		if ev.Attempt.IsCorrect && c.room != nil && ev.Attempt.WordIndex == c.room.CurrentWordIndex {
			c.answeredIndex = ev.Attempt.WordIndex
		}
		if ev.PlayerID == c.typingFrom {
			c.typingFrom = ""
		}
		c.send(ServerMessage{Type: "attempt", Attempt: ev.Attempt, PlayerID: ev.PlayerID})
	case realtime.EventTyping:
		if ev.PlayerID == c.playerID {
			return
		}
		c.typingFrom = ev.PlayerID
		c.typingEnds = c.now().Add(typingTTL)
		c.send(ServerMessage{Type: "typing", PlayerID: ev.PlayerID})
	}
}

// HandleClient processes one frame from the browser.
func (c *Controller) HandleClient(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case "start":
		if err := c.svc.StartMatch(ctx, c.code, c.playerID, c.now()); err != nil {
			c.sendError(err.Error())
			return
		}
		c.PollOnce(ctx)
	case "guess":
		c.handleGuess(ctx, msg.Guess)
	case "hint":
		c.handleHint(ctx)
	case "typing":
		c.svc.PublishTyping(ctx, c.code, c.playerID)
	}
}

func (c *Controller) handleGuess(ctx context.Context, guess string) {
	if c.phase != PhasePlaying || c.room == nil || c.answered {
		return
	}
	correct, err := c.svc.SubmitGuess(ctx, c.room, c.playerID, guess)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if correct {
		c.answered = true
		c.answeredIndex = c.room.CurrentWordIndex
		c.pending = &pendingAdvance{
			at:         c.now().Add(c.svc.opts.AdvanceDelay),
			fromIndex:  c.room.CurrentWordIndex,
			winnerSeat: c.room.Seat(c.playerID),
			final:      c.room.LastWord(),
		}
	}
	c.send(ServerMessage{Type: "result", Correct: &correct})
}

func (c *Controller) handleHint(ctx context.Context) {
	if c.phase != PhasePlaying || c.room == nil || c.answered {
		return
	}
	target, ok := c.room.CurrentWord()
	if !ok {
		return
	}
	budget := len(answer.Hints(c.svc.WordFor(ctx, target)))
	if c.hintsUsed >= budget {
		return
	}
	c.hintsUsed++
	c.pushState(ctx)
}

// Tick runs the per-second clock work: countdown expiry, the derived
// word timer, scheduled advances, typing expiry, and the host's timeout
// advance.
func (c *Controller) Tick(ctx context.Context) {
	now := c.now()

	if c.typingFrom != "" && !now.Before(c.typingEnds) {
		c.typingFrom = ""
		c.send(ServerMessage{Type: "typing", PlayerID: ""})
	}

	if c.phase == PhaseCountdown {
		if now.Before(c.countdownEnds) {
			c.pushState(ctx)
			return
		}
		c.phase = PhasePlaying
		c.pushState(ctx)
	}

	if c.pending != nil && !now.Before(c.pending.at) {
		p := c.pending
		c.pending = nil
		if _, err := c.svc.Advance(ctx, c.code, p.fromIndex, p.winnerSeat, p.final, now); err != nil {
			c.log.WithError(err).Warn("DUEL: advance failed")
		}
	}

	if c.phase != PhasePlaying || c.room == nil || c.room.Status != room.StatusPlaying {
		return
	}

	timeLeft := c.room.TimeLeft(now, c.svc.opts.WordDuration)
	if timeLeft != c.lastTimeLeft {
		c.pushState(ctx)
	}

	// The word timed out unanswered: the host alone issues the no-award
	// advance, so the two clients cannot double-fire. If the word was
	// answered, the winner's delayed advance owns the transition.
	if timeLeft == 0 && c.room.IsHost(c.playerID) &&
		c.answeredIndex < c.room.CurrentWordIndex && c.pending == nil {
		if _, err := c.svc.Advance(ctx, c.code, c.room.CurrentWordIndex, 0,
			c.room.LastWord(), now); err != nil {
			c.log.WithError(err).Warn("DUEL: timeout advance failed")
		}
	}
}

// applyRoom is the single reconciliation point: every fresher snapshot,
// wherever it came from, lands here and overwrites local state. Stale
// snapshots are dropped so a slow poll result cannot roll the view back.
func (c *Controller) applyRoom(fresh *room.Room) {
	if fresh == nil || fresh.Code != c.code {
		return
	}
	if c.room != nil && staler(fresh, c.room) {
		return
	}

	wordChanged := c.room == nil ||
		c.room.CurrentWordIndex != fresh.CurrentWordIndex ||
		c.room.Status != fresh.Status
	c.room = fresh

	if wordChanged {
		c.hintsUsed = 0
		c.answered = false
		if c.pending != nil && (c.pending.fromIndex != fresh.CurrentWordIndex ||
			fresh.Status != room.StatusPlaying) {
			c.pending = nil
		}
	}

	next := c.phase
	switch fresh.Status {
	case room.StatusWaiting:
		next = PhaseWaiting
	case room.StatusPlaying:
		if phaseRank(c.phase) < phaseRank(PhaseCountdown) {
			if c.phase == PhaseLoading && fresh.WordStartedAt != nil {
				// First snapshot is already mid-match (a reconnect);
				// the word timer is running, so skip the countdown.
				next = PhasePlaying
			} else {
				next = PhaseCountdown
				c.countdownEnds = c.now().Add(c.svc.opts.Countdown)
			}
		}
	case room.StatusFinished:
		next = PhaseFinished
	}
	if phaseRank(next) > phaseRank(c.phase) {
		c.phase = next
	}

	c.pushState(context.Background())
}

// staler reports whether a is behind b on the room's monotone axes.
func staler(a, b *room.Room) bool {
	ra, rb := statusRank(a.Status), statusRank(b.Status)
	if ra != rb {
		return ra < rb
	}
	if a.CurrentWordIndex != b.CurrentWordIndex {
		return a.CurrentWordIndex < b.CurrentWordIndex
	}
	if ta, tb := a.Player1Score+a.Player2Score, b.Player1Score+b.Player2Score; ta != tb {
		return ta < tb
	}
	return a.Player2ID == nil && b.Player2ID != nil
}

func statusRank(s room.Status) int {
	switch s {
	case room.StatusPlaying:
		return 1
	case room.StatusFinished:
		return 2
	default:
		return 0
	}
}

func (c *Controller) pushState(ctx context.Context) {
	now := c.now()
	st := &State{Phase: c.phase}

	if c.room != nil {
		r := c.room
		view := &RoomView{
			Code:             r.Code,
			Status:           r.Status,
			Player1Name:      r.Player1Name,
			Player1Score:     r.Player1Score,
			Player2Score:     r.Player2Score,
			CurrentWordIndex: r.CurrentWordIndex,
			TotalWords:       len(r.WordsOrder),
			FinishedAt:       r.FinishedAt,
		}
		if r.Player2Name != nil {
			view.Player2Name = *r.Player2Name
		}
		st.Room = view
		st.Seat = r.Seat(c.playerID)
		st.TimeLeft = r.TimeLeft(now, c.svc.opts.WordDuration)
		c.lastTimeLeft = st.TimeLeft

		if c.phase == PhasePlaying || c.phase == PhaseCountdown {
			if target, ok := r.CurrentWord(); ok {
				w := c.svc.WordFor(ctx, target)
				tier := words.DescriptionTier(r.CurrentWordIndex)
				st.Description = w.Description(tier)
				st.Category = w.Category
				hints := answer.Hints(w)
				if c.hintsUsed > 0 {
					st.Hints = hints[:min(c.hintsUsed, len(hints))]
				}
				st.HintsLeft = len(hints) - c.hintsUsed
				if st.HintsLeft < 0 {
					st.HintsLeft = 0
				}
			}
		}
	}

	if c.phase == PhaseCountdown {
		left := c.countdownEnds.Sub(now)
		if left > 0 {
			st.Countdown = int(left/time.Second) + 1
		}
	}

	c.send(ServerMessage{Type: "state", State: st})
}

func (c *Controller) sendError(msg string) {
	c.send(ServerMessage{Type: "error", Error: msg})
}
