// Package middleware carries the HTTP concerns that sit in front of the
// engine. Only the bid route is throttled: bids are the one write a client
// has an incentive to spam (outbidding a rival the instant they lead), and
// the engine's own validation makes a rapid-fire self-bid a guaranteed
// rejection anyway.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// BidThrottle enforces a minimum interval between bids per acting user per
// auction. The same user may still bid on different auctions back to back.
type BidThrottle struct {
	mu       sync.Mutex
	lastBid  map[throttleKey]time.Time
	interval time.Duration
}

type throttleKey struct {
	user    string
	auction string
}

func NewBidThrottle(interval time.Duration) *BidThrottle {
	return &BidThrottle{
		lastBid:  make(map[throttleKey]time.Time),
		interval: interval,
	}
}

// Middleware reads the acting user from the X-User header and the auction
// from the :id route param. A missing header is a client error; the bidder
// field in the body is the engine's concern, not ours.
func (b *BidThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader("X-User")
		if user == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-User header required"})
			c.Abort()
			return
		}
		key := throttleKey{user: user, auction: c.Param("id")}
		b.mu.Lock()
		last, seen := b.lastBid[key]
		if seen && time.Since(last) < b.interval {
			b.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "bidding too fast, slow down"})
			c.Abort()
			return
		}
		b.lastBid[key] = time.Now()
		b.mu.Unlock()
		c.Next()
	}
}
