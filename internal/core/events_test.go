package core

import (
	"context"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestBroadcaster_FanOutAndCancel(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish(Event{Type: EventBidAccepted, AuctionID: 1})
	check.Equal(t, EventBidAccepted, (<-ch1).Type)
	check.Equal(t, EventBidAccepted, (<-ch2).Type)

	cancel1()
	_, open := <-ch1
	check.False(t, open)
	cancel1() // double cancel is safe

	b.Publish(Event{Type: EventAuctionEnded, AuctionID: 1})
	check.Equal(t, EventAuctionEnded, (<-ch2).Type)
}

func TestBroadcaster_SlowSubscriberDropsNotBlocks(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	// nobody is draining; the buffer fills and further publishes must not hang
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(Event{Type: EventAIBid, AuctionID: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	check.Equal(t, 256, len(ch))
}

func TestEngine_EventsFollowLifecycle(t *testing.T) {
	env := newTestEnv(t, shortConfig())
	events, cancel := env.e.Subscribe()
	defer cancel()

	a := env.createTimed(t, 2000, 3000)
	env.registerBidder(t, a.ID, "alice", 5000)
	_, err := env.e.PlaceBid(context.Background(), a.ID, "alice", dec(3100))
	assert.Nil(t, err)
	env.tick(3, time.Second)

	var types []EventType
	for len(events) > 0 {
		ev := <-events
		check.Equal(t, a.ID, ev.AuctionID)
		types = append(types, ev.Type)
	}
	check.Equal(t, []EventType{EventAuctionCreated, EventBidAccepted, EventAuctionEnded}, types)
}
