package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/api/dto"
	"github.com/fentiaanyun/auction-game/internal/core"
	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/middleware"
)

type HTTPServer struct {
	Eng *core.Engine

	// aiCounterDelay spaces the synthetic counter-bid that follows every
	// accepted user bid. Zero disables the follow-up entirely.
	aiCounterDelay time.Duration
}

func NewHTTPServer(eng *core.Engine) *HTTPServer {
	return &HTTPServer{Eng: eng, aiCounterDelay: 3 * time.Second}
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.Default()

	rl := middleware.NewBidThrottle(100 * time.Millisecond)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.GET("/auctions", s.listAuctions)
	r.POST("/auctions", s.createAuction)
	r.POST("/auctions/live", s.createLiveAuction)
	r.GET("/auctions/:id", s.getAuction)
	r.PUT("/auctions/:id", s.updateAuction)
	r.DELETE("/auctions/:id", s.deleteAuction)
	r.POST("/auctions/:id/start", s.startLiveAuction)
	r.POST("/auctions/:id/bids", rl.Middleware(), s.placeBid)
	r.GET("/auctions/:id/bids", s.listBids)
	r.POST("/auctions/:id/register", s.register)
	r.POST("/auctions/:id/like", s.toggleLike)
	r.POST("/auctions/:id/ai-bid", s.triggerAIBid)
	r.GET("/history", s.history)
	r.GET("/users/:username", s.getUser)
	r.GET("/ws", s.serveEvents)

	return r
}

func (s *HTTPServer) Run(addr string) error {
	return s.Router().Run(addr)
}

// writeErr maps domain sentinels onto HTTP statuses. Bid rejections are
// normal typed results, surfaced verbatim.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound), errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAuctionNotOpen),
		errors.Is(err, domain.ErrNotRegistered),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrBelowIncrement),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrAlreadyHighest):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyRegistered),
		errors.Is(err, domain.ErrAuctionEnded),
		errors.Is(err, domain.ErrNotLiveAuction),
		errors.Is(err, domain.ErrLikeNotSupported),
		errors.Is(err, domain.ErrDuplicateAuctionID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidSchedule),
		errors.Is(err, domain.ErrReserveBelowStart),
		errors.Is(err, domain.ErrInvalidDuration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("internal error", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func auctionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) listAuctions(c *gin.Context) {
	filter := core.ListFilter{
		Category: domain.Category(c.Query("category")),
		Status:   domain.AuctionStatus(c.Query("status")),
	}
	if v := c.Query("price_min"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_min"})
			return
		}
		filter.PriceMin = &d
	}
	if v := c.Query("price_max"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_max"})
			return
		}
		filter.PriceMax = &d
	}
	auctions := s.Eng.ListAuctions(c.Request.Context(), filter)
	c.JSON(http.StatusOK, convertAuctions(auctions))
}

func (s *HTTPServer) createAuction(c *gin.Context) {
	var req dto.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := s.Eng.CreateAuction(c.Request.Context(), core.CreateAuctionInput{
		Title:              req.Title,
		Artist:             req.Artist,
		Category:           domain.Category(req.Category),
		Image:              req.Image,
		Description:        req.Description,
		StartPrice:         req.StartPrice,
		ReservePrice:       req.ReservePrice,
		ScheduledStartTime: req.ScheduledStartTime,
		ScheduledEndTime:   req.ScheduledEndTime,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, convertAuction(a))
}

func (s *HTTPServer) createLiveAuction(c *gin.Context) {
	var req dto.CreateLiveAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := s.Eng.CreateLiveAuction(c.Request.Context(), core.CreateLiveAuctionInput{
		Title:           req.Title,
		Artist:          req.Artist,
		Category:        domain.Category(req.Category),
		Image:           req.Image,
		Description:     req.Description,
		StartPrice:      req.StartPrice,
		ReservePrice:    req.ReservePrice,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, convertAuction(a))
}

func (s *HTTPServer) getAuction(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	a, err := s.Eng.GetAuction(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAuction(a))
}

func (s *HTTPServer) updateAuction(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	var req dto.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := s.Eng.UpdateAuction(c.Request.Context(), id, core.CreateAuctionInput{
		Title:              req.Title,
		Artist:             req.Artist,
		Category:           domain.Category(req.Category),
		Image:              req.Image,
		Description:        req.Description,
		StartPrice:         req.StartPrice,
		ReservePrice:       req.ReservePrice,
		ScheduledStartTime: req.ScheduledStartTime,
		ScheduledEndTime:   req.ScheduledEndTime,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, convertAuction(a))
}

func (s *HTTPServer) deleteAuction(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	if err := s.Eng.DeleteAuction(c.Request.Context(), id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *HTTPServer) startLiveAuction(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	if err := s.Eng.StartLiveAuction(c.Request.Context(), id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": id})
}

func (s *HTTPServer) placeBid(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	var req dto.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bid, err := s.Eng.PlaceBid(c.Request.Context(), id, req.Bidder, req.Amount)
	if err != nil {
		writeErr(c, err)
		return
	}
	s.scheduleAICounter(id)
	c.JSON(http.StatusOK, dto.PlaceBidResponse{
		BidID:      bid.ID,
		AuctionID:  id,
		Bidder:     bid.Bidder,
		Amount:     bid.Amount,
		CurrentBid: bid.Amount,
	})
}

// scheduleAICounter lets the synthetic bidder respond to a user bid after a
// short pause. The engine re-checks eligibility and the probability draw when
// the timer fires, so most follow-ups are silent no-ops.
func (s *HTTPServer) scheduleAICounter(auctionID int64) {
	if s.aiCounterDelay <= 0 {
		return
	}
	time.AfterFunc(s.aiCounterDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.Eng.TriggerAIBid(ctx, auctionID); err != nil {
			slog.Warn("ai counter-bid failed", "auction", auctionID, "err", err)
		}
	})
}

func (s *HTTPServer) listBids(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	a, err := s.Eng.GetAuction(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, convertBids(a.BidHistory))
}

func (s *HTTPServer) register(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.Eng.Register(c.Request.Context(), id, req.Username, core.RegistrationInfo{
		RealName: req.RealName,
		Phone:    req.Phone,
		Note:     req.Note,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered": req.Username})
}

func (s *HTTPServer) toggleLike(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	var req dto.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	liked, err := s.Eng.ToggleLike(c.Request.Context(), id, req.Username)
	if err != nil {
		writeErr(c, err)
		return
	}
	a, err := s.Eng.GetAuction(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LikeResponse{AuctionID: id, Liked: liked, LikesCount: a.LikesCount})
}

func (s *HTTPServer) triggerAIBid(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}
	res, err := s.Eng.TriggerAIBid(c.Request.Context(), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, dto.AIBidResponse{Triggered: false})
		return
	}
	c.JSON(http.StatusOK, dto.AIBidResponse{Triggered: true, Bidder: res.Bidder, Amount: res.Amount})
}

func (s *HTTPServer) history(c *gin.Context) {
	c.JSON(http.StatusOK, convertAuctions(s.Eng.History(c.Request.Context())))
}

func (s *HTTPServer) getUser(c *gin.Context) {
	u, err := s.Eng.GetUserSummary(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.User{
		Username:    u.Username,
		Balance:     u.Balance,
		TotalBids:   u.TotalBids,
		WonAuctions: len(u.WonAuctions),
	})
}

func convertAuction(a *domain.Auction) dto.Auction {
	return dto.Auction{
		ID:                 a.ID,
		Title:              a.Title,
		Artist:             a.Artist,
		Category:           string(a.Category),
		Image:              a.Image,
		Description:        a.Description,
		StartPrice:         a.StartPrice,
		CurrentBid:         a.CurrentBid,
		ReservePrice:       a.ReservePrice,
		Status:             string(a.Status),
		IsLive:             a.IsLive,
		LivePhase:          string(a.LivePhase),
		TimeLeft:           a.TimeLeft,
		ExtendedTime:       a.ExtendedTime,
		LastBidTime:        a.LastBidTime,
		ScheduledStartTime: a.ScheduledStartTime,
		ScheduledEndTime:   a.ScheduledEndTime,
		HighestBidder:      a.HighestBidder,
		RegisteredUsers:    a.RegisteredUsers,
		BidHistory:         convertBids(a.BidHistory),
		LikesCount:         a.LikesCount,
		CreatedAt:          a.CreatedAt,
		EndTime:            a.EndTime,
	}
}

func convertAuctions(auctions []domain.Auction) []dto.Auction {
	res := make([]dto.Auction, len(auctions))
	for i := range auctions {
		res[i] = convertAuction(&auctions[i])
	}
	return res
}

func convertBids(bids []domain.Bid) []dto.Bid {
	res := make([]dto.Bid, len(bids))
	for i, b := range bids {
		res[i] = dto.Bid{ID: b.ID, Bidder: b.Bidder, Amount: b.Amount, Time: b.Time}
	}
	return res
}
