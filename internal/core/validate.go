package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

// ValidateBid checks a proposed bid against the auction and user invariants.
// Checks run in a fixed order and the first failure wins, so rejection
// reasons are deterministic. It is pure: no side effects on any outcome.
func ValidateBid(a *domain.Auction, bidder string, amount decimal.Decimal, user *domain.User, minIncrement decimal.Decimal) error {
	if a == nil {
		return domain.ErrAuctionNotFound
	}
	if a.Status != domain.Active {
		return domain.ErrAuctionNotOpen
	}
	if !a.IsRegistered(bidder) {
		return domain.ErrNotRegistered
	}
	if !amount.IsPositive() || amount.LessThanOrEqual(a.CurrentBid) {
		return domain.ErrBidTooLow
	}
	if amount.LessThan(a.CurrentBid.Add(minIncrement)) {
		return domain.ErrBelowIncrement
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if amount.GreaterThan(user.Balance) {
		return domain.ErrInsufficientFunds
	}
	if a.HighestBidder == bidder {
		return domain.ErrAlreadyHighest
	}
	return nil
}

// applyBidLocked records an accepted bid. Caller holds the entry lock. The
// side effects are a unit: history append, price/leader/lastBid update
// and the anti-snipe arm for timed auctions.
func (e *Engine) applyBidLocked(a *domain.Auction, bidder string, amount decimal.Decimal) domain.Bid {
	now := e.clk.Now()
	b := domain.Bid{
		ID:     uuid.NewString(),
		Bidder: bidder,
		Amount: amount,
		Time:   now,
	}
	a.BidHistory = append(a.BidHistory, b)
	a.CurrentBid = amount
	a.HighestBidder = bidder
	t := now
	a.LastBidTime = &t
	if !a.IsLive && a.TimeLeft < e.cfg.ExtendWindow {
		// fixed reset, never cumulative
		a.ExtendedTime = e.cfg.ExtendWindow
	}
	return b
}

// PlaceBid validates and applies a user bid. Rejection is a normal, typed
// result surfaced to the caller verbatim; nothing is mutated on rejection.
func (e *Engine) PlaceBid(ctx context.Context, auctionID int64, bidder string, amount decimal.Decimal) (*domain.Bid, error) {
	en := e.lookup(auctionID)
	if en == nil {
		return nil, domain.ErrAuctionNotFound
	}
	user, err := e.users.GetUser(ctx, bidder)
	if err != nil {
		return nil, fmt.Errorf("load bidder: %w", err)
	}

	en.mu.Lock()
	a := en.a
	if err := ValidateBid(a, bidder, amount, user, e.cfg.MinIncrement); err != nil {
		en.mu.Unlock()
		return nil, err
	}
	bid := e.applyBidLocked(a, bidder, amount)
	title := a.Title
	snap := a.Snapshot()
	en.mu.Unlock()

	user.TotalBids++
	user.BidHistory = append(user.BidHistory, domain.BidRecord{
		AuctionID: auctionID,
		Title:     title,
		Amount:    amount,
		Time:      bid.Time,
		Status:    domain.BidRecordActive,
	})
	e.dispatch(func(ctx context.Context) error { return e.users.SaveUser(ctx, user) })

	slog.Info("bid accepted", "auction", auctionID, "bidder", bidder, "amount", amount)
	e.notify(ctx, fmt.Sprintf("%s bid %s on %s", bidder, amount, title), port.SeveritySuccess)
	e.events.Publish(Event{Type: EventBidAccepted, AuctionID: auctionID, Payload: snap, Time: bid.Time})
	e.persistBoard(ctx)
	return &bid, nil
}
