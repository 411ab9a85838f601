package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionStatus string
type LivePhase string
type Category string

const (
	Pending AuctionStatus = "PENDING"
	Active  AuctionStatus = "ACTIVE"
	Ended   AuctionStatus = "ENDED"

	PhaseWaiting LivePhase = "WAITING"
	PhaseBidding LivePhase = "BIDDING"
	PhaseEnded   LivePhase = "ENDED"

	Painting    Category = "PAINTING"
	Sculpture   Category = "SCULPTURE"
	Photography Category = "PHOTOGRAPHY"
	Antique     Category = "ANTIQUE"
)

// Bid is immutable once recorded; settlement only reads it.
type Bid struct {
	ID     string          `json:"id"`
	Bidder string          `json:"bidder"`
	Amount decimal.Decimal `json:"amount"`
	Time   time.Time       `json:"time"`
}

type Auction struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Category    Category `json:"category"`
	Image       string   `json:"image"`
	Description string   `json:"description"`

	StartPrice   decimal.Decimal `json:"start_price"`
	CurrentBid   decimal.Decimal `json:"current_bid"`
	ReservePrice decimal.Decimal `json:"reserve_price"`

	Status AuctionStatus `json:"status"`

	// Live auctions are operator-started and never extend.
	IsLive        bool      `json:"is_live"`
	LivePhase     LivePhase `json:"live_phase,omitempty"`
	LiveDuration  int       `json:"live_duration,omitempty"`
	LivePhaseTime int       `json:"live_phase_time,omitempty"`

	// TimeLeft and ExtendedTime are second counters; only one of them is
	// the running counter at any moment.
	TimeLeft           int        `json:"time_left"`
	ExtendedTime       int        `json:"extended_time"`
	LastBidTime        *time.Time `json:"last_bid_time,omitempty"`
	ScheduledStartTime *time.Time `json:"scheduled_start_time,omitempty"`
	ScheduledEndTime   *time.Time `json:"scheduled_end_time,omitempty"`
	IsScheduled        bool       `json:"is_scheduled"`

	RegisteredUsers []string `json:"registered_users"`
	BidHistory      []Bid    `json:"bid_history"`
	HighestBidder   string   `json:"highest_bidder,omitempty"`

	Likes      []string `json:"likes"`
	LikesCount int      `json:"likes_count"`

	CreatedAt time.Time  `json:"created_at"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (a *Auction) IsRegistered(username string) bool {
	for _, u := range a.RegisteredUsers {
		if u == username {
			return true
		}
	}
	return false
}

func (a *Auction) Liked(username string) bool {
	for _, u := range a.Likes {
		if u == username {
			return true
		}
	}
	return false
}

// HasBids reports whether any bid was ever accepted.
func (a *Auction) HasBids() bool {
	return len(a.BidHistory) > 0
}

// Snapshot returns a deep copy suitable for archival or fan-out; callers
// must not hand out the live record while the engine can still mutate it.
func (a *Auction) Snapshot() Auction {
	cp := *a
	cp.RegisteredUsers = append([]string(nil), a.RegisteredUsers...)
	cp.BidHistory = append([]Bid(nil), a.BidHistory...)
	cp.Likes = append([]string(nil), a.Likes...)
	return cp
}
