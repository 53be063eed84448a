package session

import (
	"sync"
	"time"

	"sandlot/internal/game"
)

type EventType string

const (
	EventState                EventType = "state"
	EventRollResult           EventType = "roll-result"
	EventEnded                EventType = "ended"
	EventOpponentConnected    EventType = "opponent-connected"
	EventOpponentDisconnected EventType = "opponent-disconnected"
)

// Event is one entry in a game's ordered stream. Seq is strictly
// increasing per game and never reused.
type Event struct {
	Seq    int64     `json:"seq"`
	Type   EventType `json:"type"`
	GameID string    `json:"game_id"`
	TS     time.Time `json:"ts"`
	Data   any       `json:"data"`
}

// PresencePayload rides opponent-connected / opponent-disconnected events.
type PresencePayload struct {
	UserID     string `json:"user_id"`
	GraceMS    int64  `json:"grace_ms,omitempty"`
	DeadlineTS int64  `json:"deadline_ts,omitempty"`
}

// GameEnd rides the ended event. State is nil for games cancelled before
// the first pitch.
type GameEnd struct {
	Result Result      `json:"result"`
	State  *game.State `json:"state,omitempty"`
}

// EventBuffer fans one game's events out to subscribed connections and
// keeps a bounded replay window.
type EventBuffer struct {
	mu       sync.Mutex
	nextSeq  int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	closed   bool
}

const defaultBufferMax = 500

func NewEventBuffer(max int) *EventBuffer {
	if max <= 0 {
		max = defaultBufferMax
	}
	return &EventBuffer{
		max:      max,
		watchers: make(map[chan Event]struct{}),
	}
}

// Append stores an event and notifies watchers. Watchers that cannot keep
// up are skipped, never waited on.
func (b *EventBuffer) Append(typ EventType, gameID string, data any) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Event{}
	}

	b.nextSeq++
	ev := Event{
		Seq:    b.nextSeq,
		Type:   typ,
		GameID: gameID,
		TS:     time.Now().UTC(),
		Data:   data,
	}

	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}

	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// ReplayAfter returns buffered events with Seq greater than after, in order.
func (b *EventBuffer) ReplayAfter(after int64) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Event
	for _, ev := range b.events {
		if ev.Seq > after {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribe registers a watcher channel. The channel is closed by
// Unsubscribe or Close; a subscribe on a closed buffer returns a channel
// that is already closed.
func (b *EventBuffer) Subscribe() chan Event {
	ch := make(chan Event, 32)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; !ok {
		return
	}
	delete(b.watchers, ch)
	close(ch)
}

// Close closes every watcher channel and rejects further appends.
func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
	}
	b.watchers = make(map[chan Event]struct{})
}
