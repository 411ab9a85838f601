package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

// Identities the synthetic bidder acts under. They are auto-registered on
// first use and carry no ledger.
var aiBidderNames = []string{
	"AI_Collector_01",
	"AI_Collector_02",
	"AI_Collector_03",
	"Mystery Buyer",
	"Seasoned Collector",
	"Art Enthusiast",
}

// AIBid is the outcome of a synthetic bid injection.
type AIBid struct {
	Bidder string          `json:"bidder"`
	Amount decimal.Decimal `json:"amount"`
}

// TriggerAIBid lets the synthetic bidder compete on one auction. It returns
// (nil, nil) whenever the auction is ineligible or the probability draw
// declines; that is the normal case, not an error. Synthetic bids bypass the
// registration and balance checks but still respect status, remaining time
// and the reserve-multiple price cap.
func (e *Engine) TriggerAIBid(ctx context.Context, auctionID int64) (*AIBid, error) {
	en := e.lookup(auctionID)
	if en == nil {
		return nil, nil
	}

	en.mu.Lock()
	a := en.a
	if a.Status != domain.Active || a.IsLive || a.TimeLeft < e.cfg.AIMinTimeLeft {
		en.mu.Unlock()
		return nil, nil
	}
	if e.randFloat() > e.cfg.AIProbability {
		en.mu.Unlock()
		return nil, nil
	}

	name := aiBidderNames[e.randIntn(len(aiBidderNames))]

	// Increment is k * MinIncrement with k drawn uniformly from
	// [1, AIIncrementMax/MinIncrement].
	steps := int(e.cfg.AIIncrementMax.Div(e.cfg.MinIncrement).IntPart())
	if steps < 1 {
		steps = 1
	}
	k := int64(e.randIntn(steps) + 1)
	amount := a.CurrentBid.Add(e.cfg.MinIncrement.Mul(decimal.NewFromInt(k)))

	// Synthetic bidders never chase runaway prices.
	if amount.GreaterThan(a.ReservePrice.Mul(e.cfg.AIMaxPriceMultiple)) {
		en.mu.Unlock()
		return nil, nil
	}

	if !a.IsRegistered(name) {
		a.RegisteredUsers = append(a.RegisteredUsers, name)
	}
	bid := e.applyBidLocked(a, name, amount)
	snap := a.Snapshot()
	en.mu.Unlock()

	slog.Debug("synthetic bid injected", "auction", auctionID, "bidder", name, "amount", amount)
	e.notify(ctx, fmt.Sprintf("%s bid %s", name, amount), port.SeverityInfo)
	e.events.Publish(Event{Type: EventAIBid, AuctionID: auctionID, Payload: snap, Time: bid.Time})
	e.persistBoard(ctx)
	return &AIBid{Bidder: name, Amount: amount}, nil
}

// AISweep picks one random eligible auction and lets the synthetic bidder
// evaluate it. The scheduler calls this on its own, coarser period.
func (e *Engine) AISweep(ctx context.Context) {
	var candidates []int64
	for _, en := range e.entriesSnapshot() {
		en.mu.Lock()
		if en.a.Status == domain.Active && !en.a.IsLive {
			candidates = append(candidates, en.a.ID)
		}
		en.mu.Unlock()
	}
	if len(candidates) == 0 {
		return
	}
	id := candidates[e.randIntn(len(candidates))]
	if _, err := e.TriggerAIBid(ctx, id); err != nil {
		slog.Warn("ai sweep failed", "auction", id, "err", err)
	}
}
