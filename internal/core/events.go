package core

import (
	"sync"
	"time"
)

type EventType string

const (
	EventAuctionCreated EventType = "auction_created"
	EventAuctionStarted EventType = "auction_started"
	EventAuctionUpdated EventType = "auction_updated"
	EventAuctionEnded   EventType = "auction_ended"
	EventBidAccepted    EventType = "bid_accepted"
	EventAIBid          EventType = "ai_bid"
)

// Event is what external renderers subscribe to instead of the engine ever
// touching presentation.
type Event struct {
	Type      EventType   `json:"type"`
	AuctionID int64       `json:"auction_id"`
	Payload   interface{} `json:"payload,omitempty"`
	Time      time.Time   `json:"time"`
}

// Broadcaster fans events out to subscribers. Slow subscribers get dropped
// messages rather than blocking the engine.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe returns a receive channel and a cancel func. The channel is
// closed on cancel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 256)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// drop for slow subscribers; the next event carries fresh state
		}
	}
}
