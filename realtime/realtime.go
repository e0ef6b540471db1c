// Package realtime fans match events out to every connection watching a
// room, either in-process or through Redis pub/sub when the server runs
// as more than one instance.
package realtime

import (
	"context"

	"miladuel/room"
)

// Event types carried on a room's channel.
const (
	EventRoom    = "room"    // authoritative room snapshot changed
	EventAttempt = "attempt" // a guess was recorded
	EventTyping  = "typing"  // a player is typing right now
)

// Event is one published occurrence in a room. Room events carry the
// full snapshot so subscribers reconcile rather than apply deltas; a
// dropped event is then recoverable from the next one.
type Event struct {
	Type     string        `json:"type"`
	RoomCode string        `json:"room_code"`
	Room     *room.Room    `json:"room,omitempty"`
	Attempt  *room.Attempt `json:"attempt,omitempty"`
	PlayerID string        `json:"player_id,omitempty"`
}

// Channel publishes and subscribes events per room code. Subscribe
// returns a receive channel and a cancel func; cancel must be called
// when the subscriber detaches, after which the channel is closed.
type Channel interface {
	Publish(ctx context.Context, roomCode string, ev Event) error
	Subscribe(ctx context.Context, roomCode string) (<-chan Event, func(), error)
}
