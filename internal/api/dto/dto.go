package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateAuctionRequest struct {
	Title              string          `json:"title" binding:"required"`
	Artist             string          `json:"artist" binding:"required"`
	Category           string          `json:"category"`
	Image              string          `json:"image" binding:"required"`
	Description        string          `json:"description" binding:"required"`
	StartPrice         decimal.Decimal `json:"start_price" binding:"required"`
	ReservePrice       decimal.Decimal `json:"reserve_price" binding:"required"`
	ScheduledStartTime *time.Time      `json:"scheduled_start_time,omitempty"`
	ScheduledEndTime   *time.Time      `json:"scheduled_end_time,omitempty"`
}

type CreateLiveAuctionRequest struct {
	Title           string          `json:"title" binding:"required"`
	Artist          string          `json:"artist" binding:"required"`
	Category        string          `json:"category"`
	Image           string          `json:"image" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	StartPrice      decimal.Decimal `json:"start_price" binding:"required"`
	ReservePrice    decimal.Decimal `json:"reserve_price" binding:"required"`
	DurationMinutes int             `json:"duration_minutes"`
}

type PlaceBidRequest struct {
	Bidder string          `json:"bidder" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type PlaceBidResponse struct {
	BidID      string          `json:"bid_id"`
	AuctionID  int64           `json:"auction_id"`
	Bidder     string          `json:"bidder"`
	Amount     decimal.Decimal `json:"amount"`
	CurrentBid decimal.Decimal `json:"current_bid"`
	Message    string          `json:"message,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	RealName string `json:"real_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Note     string `json:"note,omitempty"`
}

type LikeRequest struct {
	Username string `json:"username" binding:"required"`
}

type LikeResponse struct {
	AuctionID  int64 `json:"auction_id"`
	Liked      bool  `json:"liked"`
	LikesCount int   `json:"likes_count"`
}

type AIBidResponse struct {
	Triggered bool            `json:"triggered"`
	Bidder    string          `json:"bidder,omitempty"`
	Amount    decimal.Decimal `json:"amount,omitempty"`
}

type Auction struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Artist             string          `json:"artist"`
	Category           string          `json:"category"`
	Image              string          `json:"image"`
	Description        string          `json:"description"`
	StartPrice         decimal.Decimal `json:"start_price"`
	CurrentBid         decimal.Decimal `json:"current_bid"`
	ReservePrice       decimal.Decimal `json:"reserve_price"`
	Status             string          `json:"status"`
	IsLive             bool            `json:"is_live"`
	LivePhase          string          `json:"live_phase,omitempty"`
	TimeLeft           int             `json:"time_left"`
	ExtendedTime       int             `json:"extended_time"`
	LastBidTime        *time.Time      `json:"last_bid_time,omitempty"`
	ScheduledStartTime *time.Time      `json:"scheduled_start_time,omitempty"`
	ScheduledEndTime   *time.Time      `json:"scheduled_end_time,omitempty"`
	HighestBidder      string          `json:"highest_bidder,omitempty"`
	RegisteredUsers    []string        `json:"registered_users"`
	BidHistory         []Bid           `json:"bid_history"`
	LikesCount         int             `json:"likes_count"`
	CreatedAt          time.Time       `json:"created_at"`
	EndTime            *time.Time      `json:"end_time,omitempty"`
}

type Bid struct {
	ID     string          `json:"id"`
	Bidder string          `json:"bidder"`
	Amount decimal.Decimal `json:"amount"`
	Time   time.Time       `json:"time"`
}

type User struct {
	Username    string          `json:"username"`
	Balance     decimal.Decimal `json:"balance"`
	TotalBids   int             `json:"total_bids"`
	WonAuctions int             `json:"won_auctions"`
}
