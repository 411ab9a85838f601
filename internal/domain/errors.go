package domain

import "errors"

// Bid rejection reasons, in the order the validator checks them.
var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionNotOpen    = errors.New("auction is not open for bidding")
	ErrNotRegistered     = errors.New("bidder is not registered for this auction")
	ErrBidTooLow         = errors.New("bid must exceed the current bid")
	ErrBelowIncrement    = errors.New("bid is below the minimum increment")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrAlreadyHighest    = errors.New("bidder already holds the highest bid")
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyRegistered  = errors.New("already registered for this auction")
	ErrDuplicateAuctionID = errors.New("auction id already exists")
	ErrNotLiveAuction     = errors.New("auction is not a live auction")
	ErrAuctionEnded       = errors.New("auction has already ended")
	ErrLikeNotSupported   = errors.New("live auctions do not support likes")
	ErrInvalidSchedule    = errors.New("end time must be after start time")
	ErrReserveBelowStart  = errors.New("reserve price cannot be below start price")
	ErrInvalidDuration    = errors.New("auction duration out of allowed range")
	ErrMissingFields      = errors.New("required fields missing")
)
