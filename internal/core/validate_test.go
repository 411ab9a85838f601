package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/domain"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestValidateBid_RejectionOrder(t *testing.T) {
	minIncrement := dec(100)
	base := func() *domain.Auction {
		return &domain.Auction{
			ID:              1,
			Status:          domain.Active,
			StartPrice:      dec(2000),
			CurrentBid:      dec(2000),
			ReservePrice:    dec(3000),
			TimeLeft:        120,
			RegisteredUsers: []string{"alice"},
		}
	}
	rich := &domain.User{Username: "alice", Balance: dec(5000)}

	t.Run("missing auction wins over everything", func(t *testing.T) {
		err := ValidateBid(nil, "alice", dec(2100), rich, minIncrement)
		check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
	})

	t.Run("not open", func(t *testing.T) {
		a := base()
		a.Status = domain.Ended
		err := ValidateBid(a, "alice", dec(2100), rich, minIncrement)
		check.True(t, errors.Is(err, domain.ErrAuctionNotOpen))
	})

	t.Run("unregistered rejected even with valid amount and funds", func(t *testing.T) {
		a := base()
		stranger := &domain.User{Username: "bob", Balance: dec(9999)}
		err := ValidateBid(a, "bob", dec(2100), stranger, minIncrement)
		check.True(t, errors.Is(err, domain.ErrNotRegistered))
	})

	t.Run("non-positive amount is too low", func(t *testing.T) {
		err := ValidateBid(base(), "alice", dec(-5), rich, minIncrement)
		check.True(t, errors.Is(err, domain.ErrBidTooLow))
	})

	t.Run("amount equal to current bid is too low", func(t *testing.T) {
		err := ValidateBid(base(), "alice", dec(2000), rich, minIncrement)
		check.True(t, errors.Is(err, domain.ErrBidTooLow))
	})

	t.Run("below increment regardless of affordability", func(t *testing.T) {
		err := ValidateBid(base(), "alice", dec(2050), rich, minIncrement)
		check.True(t, errors.Is(err, domain.ErrBelowIncrement))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		poor := &domain.User{Username: "alice", Balance: dec(2100)}
		err := ValidateBid(base(), "alice", dec(2200), poor, minIncrement)
		check.True(t, errors.Is(err, domain.ErrInsufficientFunds))
	})

	t.Run("already highest bidder", func(t *testing.T) {
		a := base()
		a.HighestBidder = "alice"
		err := ValidateBid(a, "alice", dec(2100), rich, minIncrement)
		check.True(t, errors.Is(err, domain.ErrAlreadyHighest))
	})

	t.Run("registration checked before amount", func(t *testing.T) {
		a := base()
		err := ValidateBid(a, "bob", dec(1), nil, minIncrement)
		check.True(t, errors.Is(err, domain.ErrNotRegistered))
	})

	t.Run("valid bid passes", func(t *testing.T) {
		err := ValidateBid(base(), "alice", dec(2100), rich, minIncrement)
		check.Nil(t, err)
	})
}

func TestValidateBid_MissingUser(t *testing.T) {
	a := &domain.Auction{
		Status:          domain.Active,
		CurrentBid:      dec(2000),
		RegisteredUsers: []string{"ghost"},
	}
	err := ValidateBid(a, "ghost", dec(2100), nil, dec(100))
	check.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestValidateBid_NoMutation(t *testing.T) {
	a := &domain.Auction{
		Status:          domain.Active,
		CurrentBid:      dec(2000),
		RegisteredUsers: []string{"alice"},
		LastBidTime:     nil,
	}
	user := &domain.User{Username: "alice", Balance: dec(100)}
	_ = ValidateBid(a, "alice", dec(2100), user, dec(100))

	check.Equal(t, dec(2000).String(), a.CurrentBid.String())
	check.Equal(t, "", a.HighestBidder)
	check.Equal(t, 0, len(a.BidHistory))
	if a.LastBidTime != nil {
		t.Fatalf("lastBidTime set on rejection: %v", *a.LastBidTime)
	}
}
