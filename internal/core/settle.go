package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

// SettleResult reports the outcome of an ended auction.
type SettleResult struct {
	Sold         bool
	Winner       string
	Amount       decimal.Decimal
	Unreconciled bool
}

// settleLocked finalizes an auction: terminal status, archival snapshot and,
// if sold, the winner debit. Caller holds the entry lock. The history set is
// the idempotency guard; an auction already archived is a no-op, so a double
// invocation can never debit twice.
func (e *Engine) settleLocked(ctx context.Context, a *domain.Auction, now time.Time) *SettleResult {
	e.mu.RLock()
	_, archived := e.history[a.ID]
	e.mu.RUnlock()
	if archived {
		return nil
	}

	a.Status = domain.Ended
	if a.IsLive {
		a.LivePhase = domain.PhaseEnded
	}
	a.ExtendedTime = 0
	t := now
	a.EndTime = &t

	res := &SettleResult{
		Winner: a.HighestBidder,
		Amount: a.CurrentBid,
		Sold:   a.HighestBidder != "" && a.CurrentBid.GreaterThanOrEqual(a.ReservePrice),
	}

	if res.Sold {
		e.reconcileWinner(ctx, a, res, now)
	} else {
		slog.Info("auction ended unsold",
			"auction", a.ID, "current_bid", a.CurrentBid, "reserve", a.ReservePrice)
		e.notify(ctx, fmt.Sprintf("Auction %q ended below reserve, unsold", a.Title), port.SeverityInfo)
	}

	snap := a.Snapshot()
	e.mu.Lock()
	if _, ok := e.history[a.ID]; !ok {
		e.history[a.ID] = snap
	}
	e.mu.Unlock()

	e.events.Publish(Event{Type: EventAuctionEnded, AuctionID: a.ID, Payload: snap, Time: now})
	e.persistHistory(ctx)
	return res
}

// reconcileWinner debits the winner and records the win in their ledger. A
// missing winner record degrades to an unreconciled sale; a stuck auction is
// worse than an unreconciled one.
func (e *Engine) reconcileWinner(ctx context.Context, a *domain.Auction, res *SettleResult, now time.Time) {
	winner, err := e.users.GetUser(ctx, a.HighestBidder)
	if err != nil || winner == nil {
		res.Unreconciled = true
		slog.Warn("auction sold but winner could not be reconciled",
			"auction", a.ID, "winner", a.HighestBidder, "err", err)
		return
	}

	winner.Balance = winner.Balance.Sub(a.CurrentBid)
	winner.WonAuctions = append(winner.WonAuctions, domain.WonRecord{
		AuctionID: a.ID,
		Title:     a.Title,
		Image:     a.Image,
		Amount:    a.CurrentBid,
		Time:      now,
		IsLive:    a.IsLive,
	})
	for i := range winner.BidHistory {
		rec := &winner.BidHistory[i]
		if rec.AuctionID == a.ID && rec.Status == domain.BidRecordActive {
			rec.Status = domain.BidRecordWon
			break
		}
	}
	e.dispatch(func(ctx context.Context) error { return e.users.SaveUser(ctx, winner) })

	slog.Info("auction sold", "auction", a.ID, "winner", winner.Username, "amount", a.CurrentBid)
	e.notify(ctx, fmt.Sprintf("Auction %q won by %s for %s", a.Title, winner.Username, a.CurrentBid), port.SeveritySuccess)
}
