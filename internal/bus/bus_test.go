package bus

import (
	"context"
	"testing"
	"time"
)

func TestPublishDispatch(t *testing.T) {
	b := New(4)
	got := make(chan Event, 4)
	b.Subscribe(func(evt Event) { got <- evt })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Dispatch(ctx)

	want := Event{Action: ActionWarned, PostID: "abc", Author: "alice"}
	b.Publish(want)

	select {
	case evt := <-got:
		if evt.PostID != want.PostID || evt.Action != want.Action {
			t.Errorf("got %+v, want %+v", evt, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event was not dispatched")
	}
}

func TestPublishNeverBlocksWhenFull(t *testing.T) {
	b := New(1)
	b.Publish(Event{Action: ActionWarned, PostID: "a"})

	done := make(chan struct{})
	go func() {
		// no Dispatch running and the buffer is full; must return anyway
		b.Publish(Event{Action: ActionRemoved, PostID: "b"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}

func TestDispatchFansOut(t *testing.T) {
	b := New(4)
	got1 := make(chan Event, 1)
	got2 := make(chan Event, 1)
	b.Subscribe(func(evt Event) { got1 <- evt })
	b.Subscribe(func(evt Event) { got2 <- evt })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Dispatch(ctx)

	b.Publish(Event{Action: ActionApproved, PostID: "abc"})

	for i, ch := range []chan Event{got1, got2} {
		select {
		case evt := <-ch:
			if evt.PostID != "abc" {
				t.Errorf("subscriber %d got %+v", i, evt)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}
