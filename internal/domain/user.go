package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BidRecordStatus string

const (
	BidRecordActive BidRecordStatus = "ACTIVE"
	BidRecordWon    BidRecordStatus = "WON"
)

// BidRecord is an entry in a user's personal bidding ledger.
type BidRecord struct {
	AuctionID int64           `json:"auction_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Time      time.Time       `json:"time"`
	Status    BidRecordStatus `json:"status"`
}

type WonRecord struct {
	AuctionID int64           `json:"auction_id"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Amount    decimal.Decimal `json:"amount"`
	Time      time.Time       `json:"time"`
	IsLive    bool            `json:"is_live"`
}

type Registration struct {
	AuctionID int64     `json:"auction_id"`
	Title     string    `json:"title"`
	Time      time.Time `json:"time"`
	RealName  string    `json:"real_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// User is owned by the external user store; the engine reads the balance for
// affordability checks and debits it at settlement.
type User struct {
	Username      string          `json:"username"`
	Balance       decimal.Decimal `json:"balance"`
	TotalBids     int             `json:"total_bids"`
	BidHistory    []BidRecord     `json:"bid_history"`
	WonAuctions   []WonRecord     `json:"won_auctions"`
	Registrations []Registration  `json:"registrations"`
	CreatedAt     time.Time       `json:"created_at"`
}
