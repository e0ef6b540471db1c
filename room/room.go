// Package room models a duel match as a persisted row with a monotone
// status machine (waiting → playing → finished) and guarded single-row
// updates for every transition.
package room

import (
	"errors"
	"time"
)

// Status is the lifecycle stage of a room. It only ever advances.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

var (
	ErrNotFound   = errors.New("room not found")
	ErrCodeTaken  = errors.New("room code already in use")
	ErrRoomFull   = errors.New("room already has two players")
	ErrStarted    = errors.New("match already started")
	ErrNotHost    = errors.New("only the host may do that")
	ErrNoOpponent = errors.New("no second player has joined")
	ErrNotSeated  = errors.New("player is not seated in this room")
	ErrFinished   = errors.New("match already finished")
)

// Room is the authoritative state of one duel. The host (player 1)
// creates it; a single guest may take the second seat while it is
// waiting. Scores and the word index only move forward, and the row
// becomes read-only once finished.
type Room struct {
	ID               uint       `gorm:"primaryKey" json:"-"`
	Code             string     `gorm:"uniqueIndex;size:8;not null" json:"code"`
	Status           Status     `gorm:"size:16;not null;default:'waiting'" json:"status"`
	Player1ID        string     `gorm:"size:64;not null" json:"player1_id"`
	Player1Name      string     `gorm:"size:64;not null" json:"player1_name"`
	Player2ID        *string    `gorm:"size:64" json:"player2_id,omitempty"`
	Player2Name      *string    `gorm:"size:64" json:"player2_name,omitempty"`
	Player1Score     int        `gorm:"not null;default:0" json:"player1_score"`
	Player2Score     int        `gorm:"not null;default:0" json:"player2_score"`
	CurrentWordIndex int        `gorm:"not null;default:0" json:"current_word_index"`
	WordsOrder       []string   `gorm:"serializer:json;type:text" json:"words_order"`
	WordStartedAt    *time.Time `json:"word_started_at,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"-"`
}

func (Room) TableName() string { return "game_rooms" }

// Seat returns 1 or 2 for a seated player, 0 otherwise.
func (r *Room) Seat(playerID string) int {
	switch {
	case playerID == "":
		return 0
	case playerID == r.Player1ID:
		return 1
	case r.Player2ID != nil && playerID == *r.Player2ID:
		return 2
	default:
		return 0
	}
}

// IsHost reports whether playerID created the room.
func (r *Room) IsHost(playerID string) bool { return r.Seat(playerID) == 1 }

// Seated reports whether playerID holds either seat.
func (r *Room) Seated(playerID string) bool { return r.Seat(playerID) != 0 }

// CanJoin reports whether a new player may take the second seat.
func (r *Room) CanJoin() error {
	if r.Status != StatusWaiting {
		return ErrStarted
	}
	if r.Player2ID != nil {
		return ErrRoomFull
	}
	return nil
}

// CanStart reports whether playerID may start the match right now.
func (r *Room) CanStart(playerID string) error {
	if !r.IsHost(playerID) {
		return ErrNotHost
	}
	if r.Status != StatusWaiting {
		return ErrStarted
	}
	if r.Player2ID == nil {
		return ErrNoOpponent
	}
	return nil
}

// LastWord reports whether the current word is the final one, so the next
// advance finishes the match instead of incrementing the index.
func (r *Room) LastWord() bool {
	return r.CurrentWordIndex >= len(r.WordsOrder)-1
}

// CurrentWord returns the word text at the current index.
func (r *Room) CurrentWord() (string, bool) {
	if r.CurrentWordIndex < 0 || r.CurrentWordIndex >= len(r.WordsOrder) {
		return "", false
	}
	return r.WordsOrder[r.CurrentWordIndex], true
}

// TimeLeft derives the remaining whole seconds for the current word from
// the server-recorded start timestamp. Clients recompute this every tick
// instead of counting down locally, so a suspended tab cannot drift.
func (r *Room) TimeLeft(now time.Time, perWord time.Duration) int {
	if r.Status != StatusPlaying || r.WordStartedAt == nil {
		return 0
	}
	left := perWord - now.Sub(*r.WordStartedAt)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

// ScoreFor returns the score of the given seat.
func (r *Room) ScoreFor(seat int) int {
	if seat == 2 {
		return r.Player2Score
	}
	return r.Player1Score
}

// PlayerName resolves a seated player id to its display name.
func (r *Room) PlayerName(playerID string) string {
	switch r.Seat(playerID) {
	case 1:
		return r.Player1Name
	case 2:
		return *r.Player2Name
	default:
		return ""
	}
}

// Attempt is one recorded guess, append-only once created.
type Attempt struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RoomID    uint      `gorm:"index;not null" json:"-"`
	RoomCode  string    `gorm:"index;size:8;not null" json:"room_code"`
	PlayerID  string    `gorm:"size:64;not null" json:"player_id"`
	WordIndex int       `gorm:"not null" json:"word_index"`
	Guess     string    `gorm:"size:191;not null" json:"guess"`
	IsCorrect bool      `gorm:"not null" json:"is_correct"`
	CreatedAt time.Time `json:"submitted_at"`
}

func (Attempt) TableName() string { return "game_attempts" }
