package realtime

import (
	"context"
	"sync"
)

// subscriberBuffer bounds each subscriber's queue. A subscriber that
// falls this far behind loses events rather than blocking the
// publisher; the periodic poll restores its view of the room.
const subscriberBuffer = 16

// Broadcaster is an in-process Channel for single-instance deployments.
type Broadcaster struct {
	mu    sync.Mutex
	rooms map[string]map[chan Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{rooms: make(map[string]map[chan Event]struct{})}
}

func (b *Broadcaster) Publish(_ context.Context, roomCode string, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.rooms[roomCode] {
		select {
		case ch <- ev:
		default:
			// Lagging subscriber: drop instead of blocking everyone.
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(_ context.Context, roomCode string) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	subs, ok := b.rooms[roomCode]
	if !ok {
		subs = make(map[chan Event]struct{})
		b.rooms[roomCode] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.rooms[roomCode]; ok {
			if _, live := subs[ch]; live {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(b.rooms, roomCode)
			}
		}
	}
	return ch, cancel, nil
}

// Subscribers reports how many subscribers a room currently has.
func (b *Broadcaster) Subscribers(roomCode string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rooms[roomCode])
}
