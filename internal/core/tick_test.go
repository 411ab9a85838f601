package core

import (
	"context"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/fentiaanyun/auction-game/internal/domain"
)

// createScheduled publishes an auction whose window is offset from creation
// time, so tick counts line up with whole seconds.
func (env *testEnv) createScheduled(t *testing.T, startIn, endIn time.Duration) *domain.Auction {
	t.Helper()
	env.clk.Advance(time.Millisecond)
	var start, end *time.Time
	s := env.clk.Now().Add(startIn)
	start = &s
	if endIn > 0 {
		e := env.clk.Now().Add(endIn)
		end = &e
	}
	a, err := env.e.CreateAuction(context.Background(), CreateAuctionInput{
		Title:              "Girl with a Pearl Earring",
		Artist:             "Johannes Vermeer, 1665",
		Category:           domain.Painting,
		Image:              "https://example.com/pearl.jpg",
		Description:        "Oil on canvas.",
		StartPrice:         dec(2000),
		ReservePrice:       dec(3000),
		ScheduledStartTime: start,
		ScheduledEndTime:   end,
	})
	assert.Nil(t, err)
	return a
}

func TestTick_OpensScheduledAuctionAtStart(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	a := env.createScheduled(t, 10*time.Second, 70*time.Second)
	check.Equal(t, domain.Pending, a.Status)
	check.True(t, a.IsScheduled)

	env.tick(9, time.Second)
	check.Equal(t, domain.Pending, env.get(t, a.ID).Status)

	env.tick(1, time.Second)
	got := env.get(t, a.ID)
	check.Equal(t, domain.Active, got.Status)
	// remaining window comes from the scheduled end, not the default
	check.Equal(t, 60, got.TimeLeft)
}

func TestTick_ScheduledWithoutEndUsesDefaultDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultDuration = 42
	env := newTestEnv(t, cfg)
	a := env.createScheduled(t, 5*time.Second, 0)

	env.tick(5, time.Second)
	got := env.get(t, a.ID)
	check.Equal(t, domain.Active, got.Status)
	check.Equal(t, 42, got.TimeLeft)
}

func TestTick_ClosedWindowEndsUnsold(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	a := env.createScheduled(t, 10*time.Second, 20*time.Second)

	// engine was down across the whole window; first tick back must not
	// open a dead auction
	env.clk.Advance(30 * time.Second)
	env.e.Tick(context.Background())

	got := env.get(t, a.ID)
	check.Equal(t, domain.Ended, got.Status)
	hist := env.e.History(context.Background())
	assert.Equal(t, 1, len(hist))
	check.Equal(t, a.ID, hist[0].ID)
}

func TestTick_InconsistentActiveForcedToEnd(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	a := env.createTimed(t, 2000, 3000)

	en := env.e.lookup(a.ID)
	en.mu.Lock()
	en.a.TimeLeft = 0
	en.a.ExtendedTime = 0
	en.mu.Unlock()

	env.tick(1, time.Second)
	check.Equal(t, domain.Ended, env.get(t, a.ID).Status)
}

func TestTick_LiveImpossibleStateForcedToEnd(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())
	env.clk.Advance(time.Millisecond)
	a, err := env.e.CreateLiveAuction(context.Background(), CreateLiveAuctionInput{
		Title:           "Bird in Space",
		Artist:          "Constantin Brancusi, 1923",
		Category:        domain.Sculpture,
		Image:           "https://example.com/bird.jpg",
		Description:     "Bronze.",
		StartPrice:      dec(3500),
		ReservePrice:    dec(5000),
		DurationMinutes: 1,
	})
	assert.Nil(t, err)

	en := env.e.lookup(a.ID)
	en.mu.Lock()
	en.a.Status = domain.Active
	en.a.LivePhase = domain.PhaseWaiting // bidding never opened
	en.mu.Unlock()

	env.tick(1, time.Second)
	got := env.get(t, a.ID)
	check.Equal(t, domain.Ended, got.Status)
	check.Equal(t, domain.PhaseEnded, got.LivePhase)
}

func TestTick_EndedAuctionsAreInert(t *testing.T) {
	env := newTestEnv(t, shortConfig())
	a := env.createTimed(t, 2000, 3000)
	env.tick(3, time.Second)
	check.Equal(t, domain.Ended, env.get(t, a.ID).Status)

	env.tick(10, time.Second)
	check.Equal(t, 1, len(env.e.History(context.Background())))
}
