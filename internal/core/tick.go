package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

// Tick advances every auction by one second. It is the only driver of state
// change; the host invokes it once per second.
func (e *Engine) Tick(ctx context.Context) {
	now := e.clk.Now()
	changed := false
	for _, en := range e.entriesSnapshot() {
		en.mu.Lock()
		if e.step(ctx, en.a, now) {
			changed = true
		}
		en.mu.Unlock()
	}
	if changed {
		e.persistBoard(ctx)
	}
}

// step advances a single auction. Caller holds the entry lock. Returns true
// when the record changed.
func (e *Engine) step(ctx context.Context, a *domain.Auction, now time.Time) bool {
	switch a.Status {
	case domain.Pending:
		// Live auctions never auto-start.
		if a.IsLive || a.ScheduledStartTime == nil || now.Before(*a.ScheduledStartTime) {
			return false
		}
		e.openScheduled(ctx, a, now)
		return true
	case domain.Active:
	default:
		return false
	}

	if a.IsLive {
		return e.stepLive(ctx, a, now)
	}
	return e.stepTimed(ctx, a, now)
}

// openScheduled handles Pending -> Active when the wall clock reaches the
// scheduled start. A window that already closed ends the auction unsold.
func (e *Engine) openScheduled(ctx context.Context, a *domain.Auction, now time.Time) {
	if a.ScheduledEndTime != nil {
		timeLeft := int(a.ScheduledEndTime.Sub(now).Seconds())
		if timeLeft <= 0 {
			slog.Info("scheduled window already closed, ending unsold", "auction", a.ID)
			e.settleLocked(ctx, a, now)
			e.notify(ctx, "Auction never opened and ended unsold: "+a.Title, port.SeverityWarning)
			return
		}
		a.Status = domain.Active
		a.TimeLeft = timeLeft
	} else {
		a.Status = domain.Active
		a.TimeLeft = e.cfg.DefaultDuration
	}
	slog.Info("scheduled auction opened", "auction", a.ID, "time_left", a.TimeLeft)
	e.notify(ctx, "Auction started: "+a.Title, port.SeverityInfo)
	e.events.Publish(Event{Type: EventAuctionStarted, AuctionID: a.ID, Payload: a.Snapshot(), Time: now})
}

// stepLive decrements the live bidding window. livePhaseTime and timeLeft
// track the same remaining window in lockstep; there is no anti-snipe.
func (e *Engine) stepLive(ctx context.Context, a *domain.Auction, now time.Time) bool {
	if a.LivePhase != domain.PhaseBidding || a.LivePhaseTime <= 0 {
		slog.Warn("live auction in impossible state, forcing end",
			"auction", a.ID, "phase", a.LivePhase, "phase_time", a.LivePhaseTime)
		e.settleLocked(ctx, a, now)
		return true
	}
	a.LivePhaseTime--
	a.TimeLeft--
	if a.LivePhaseTime == 0 {
		e.settleLocked(ctx, a, now)
	}
	return true
}

func (e *Engine) stepTimed(ctx context.Context, a *domain.Auction, now time.Time) bool {
	if a.ExtendedTime > 0 {
		a.ExtendedTime--
		if a.ExtendedTime == 0 {
			// A bid may have landed during the final extension second; the
			// elapsed-time check closes the timer granularity race.
			if e.withinExtendWindow(a, now) {
				a.ExtendedTime = e.cfg.ExtendWindow
			} else {
				e.settleLocked(ctx, a, now)
			}
		}
		return true
	}

	if a.TimeLeft > 0 {
		a.TimeLeft--
		if a.TimeLeft == 0 {
			if a.HasBids() && e.withinExtendWindow(a, now) {
				// last-tick snipe: extend instead of ending
				a.ExtendedTime = e.cfg.ExtendWindow
			} else {
				e.settleLocked(ctx, a, now)
			}
		}
		return true
	}

	// Active with neither counter running and nothing scheduled: a tick must
	// always make progress, so force the end transition instead of looping.
	slog.Warn("auction in inconsistent state, forcing end",
		"auction", a.ID, "time_left", a.TimeLeft, "extended", a.ExtendedTime)
	e.settleLocked(ctx, a, now)
	return true
}

func (e *Engine) withinExtendWindow(a *domain.Auction, now time.Time) bool {
	if a.LastBidTime == nil {
		return false
	}
	return now.Sub(*a.LastBidTime) < time.Duration(e.cfg.ExtendWindow)*time.Second
}
