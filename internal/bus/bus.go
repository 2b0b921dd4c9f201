// Package bus carries moderation action events from the tracker to
// observers (telegram alerts, heartbeat summaries). Publishing never blocks
// the reconciliation loop.
package bus

import (
	"context"
	"log"
	"sync"
	"time"
)

type Action string

const (
	ActionWarned   Action = "warned"
	ActionRemoved  Action = "removed"
	ActionApproved Action = "approved"
	ActionNudged   Action = "nudged"
)

type Event struct {
	Action    Action
	PostID    string
	Title     string
	Author    string
	Permalink string
	At        time.Time
}

type Bus struct {
	events chan Event

	mu   sync.Mutex
	subs []func(Event)
}

func New(bufSize int) *Bus {
	return &Bus{events: make(chan Event, bufSize)}
}

func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish enqueues an event, dropping it when the buffer is full. The
// tracker must never stall on a slow observer.
func (b *Bus) Publish(evt Event) {
	select {
	case b.events <- evt:
	default:
		log.Printf("[bus] buffer full, dropping %s event for %s", evt.Action, evt.PostID)
	}
}

// Dispatch delivers events to subscribers until ctx is cancelled. Run it on
// its own goroutine.
func (b *Bus) Dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-b.events:
			b.mu.Lock()
			subs := make([]func(Event), len(b.subs))
			copy(subs, b.subs)
			b.mu.Unlock()
			for _, fn := range subs {
				fn(evt)
			}
		}
	}
}
