package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/adapter/in_memory"
	"github.com/fentiaanyun/auction-game/internal/api/dto"
	"github.com/fentiaanyun/auction-game/internal/clock"
	"github.com/fentiaanyun/auction-game/internal/core"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	srv    *HTTPServer
	router *gin.Engine
	users  *in_memory.UserStore
	clk    *clock.Stepping
}

func newAPIEnv(t *testing.T) *apiEnv {
	return newAPIEnvCfg(t, core.DefaultConfig())
}

func newAPIEnvCfg(t *testing.T, cfg core.Config) *apiEnv {
	t.Helper()
	clk := clock.NewStepping(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	users := in_memory.NewUserStore()
	eng := core.NewEngine(in_memory.NewMemoryRepo(), users, cfg, core.WithClock(clk))
	srv := NewHTTPServer(eng)
	srv.aiCounterDelay = 0 // no surprise synthetic bids mid-assertion
	return &apiEnv{srv: srv, router: srv.Router(), users: users, clk: clk}
}

func (env *apiEnv) do(t *testing.T, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.Nil(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *apiEnv) createAuction(t *testing.T) dto.Auction {
	t.Helper()
	env.clk.Advance(time.Millisecond)
	w := env.do(t, http.MethodPost, "/auctions", gin.H{
		"title":         "Starry Night",
		"artist":        "Vincent van Gogh, 1889",
		"category":      "PAINTING",
		"image":         "https://example.com/starry-night.jpg",
		"description":   "Oil on canvas.",
		"start_price":   2000,
		"reserve_price": 3000,
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	var a dto.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &a))
	return a
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", nil, nil)
	check.Equal(t, http.StatusOK, w.Code)
}

func TestCreateGetAndList(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)
	check.True(t, a.ID > 0)
	check.Equal(t, "ACTIVE", a.Status)
	check.Equal(t, "2000", a.CurrentBid.String())

	w := env.do(t, http.MethodGet, fmt.Sprintf("/auctions/%d", a.ID), nil, nil)
	check.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/auctions", nil, nil)
	check.Equal(t, http.StatusOK, w.Code)
	var list []dto.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, len(list))
	check.Equal(t, a.ID, list[0].ID)
}

func TestCreateAuction_BadInput(t *testing.T) {
	env := newAPIEnv(t)
	env.clk.Advance(time.Millisecond)

	// binding rejects a missing title before the engine sees it
	w := env.do(t, http.MethodPost, "/auctions", gin.H{
		"artist":        "A",
		"image":         "https://example.com/x.jpg",
		"description":   "d",
		"start_price":   2000,
		"reserve_price": 3000,
	}, nil)
	check.Equal(t, http.StatusBadRequest, w.Code)

	// reserve below start passes binding and fails domain validation
	w = env.do(t, http.MethodPost, "/auctions", gin.H{
		"title":         "X",
		"artist":        "A",
		"image":         "https://example.com/x.jpg",
		"description":   "d",
		"start_price":   2000,
		"reserve_price": 1000,
	}, nil)
	check.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAuction_NotFound(t *testing.T) {
	env := newAPIEnv(t)
	w := env.do(t, http.MethodGet, "/auctions/12345", nil, nil)
	check.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/auctions/not-a-number", nil, nil)
	check.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBidFlow(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)
	env.users.Seed("alice", decimal.NewFromInt(5000))

	w := env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/register", a.ID),
		gin.H{"username": "alice"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/bids", a.ID),
		gin.H{"bidder": "alice", "amount": 2100}, map[string]string{"X-User": "alice"})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.PlaceBidResponse
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &resp))
	check.Equal(t, "alice", resp.Bidder)
	check.Equal(t, "2100", resp.Amount.String())
	check.True(t, resp.BidID != "")

	w = env.do(t, http.MethodGet, fmt.Sprintf("/auctions/%d/bids", a.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var bids []dto.Bid
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &bids))
	assert.Equal(t, 1, len(bids))
	check.Equal(t, "alice", bids[0].Bidder)
}

func TestBid_ErrorMapping(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)
	env.users.Seed("alice", decimal.NewFromInt(5000))

	// not registered yet: a typed rejection, not a server error
	w := env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/bids", a.ID),
		gin.H{"bidder": "alice", "amount": 2100}, map[string]string{"X-User": "alice"})
	check.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// bids without the acting-user header never reach the engine
	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/bids", a.ID),
		gin.H{"bidder": "alice", "amount": 2100}, nil)
	check.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/auctions/999/bids",
		gin.H{"bidder": "alice", "amount": 2100}, map[string]string{"X-User": "bob"})
	check.Equal(t, http.StatusNotFound, w.Code)
}

func TestBid_SchedulesAICounterBid(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.AIProbability = 1
	env := newAPIEnvCfg(t, cfg)
	env.srv.aiCounterDelay = time.Millisecond
	a := env.createAuction(t)
	env.users.Seed("alice", decimal.NewFromInt(5000))

	w := env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/register", a.ID),
		gin.H{"username": "alice"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/bids", a.ID),
		gin.H{"bidder": "alice", "amount": 2100}, map[string]string{"X-User": "alice"})
	assert.Equal(t, http.StatusOK, w.Code)

	// the synthetic bidder answers shortly after
	deadline := time.Now().Add(2 * time.Second)
	for {
		w = env.do(t, http.MethodGet, fmt.Sprintf("/auctions/%d/bids", a.ID), nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		var bids []dto.Bid
		assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &bids))
		if len(bids) >= 2 {
			check.NotEqual(t, "alice", bids[1].Bidder)
			check.True(t, bids[1].Amount.GreaterThan(bids[0].Amount))
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("no synthetic counter-bid arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBid_RateLimited(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)
	env.users.Seed("alice", decimal.NewFromInt(50000))

	w := env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/register", a.ID),
		gin.H{"username": "alice"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := gin.H{"bidder": "alice", "amount": 2100}
	hdr := map[string]string{"X-User": "alice"}
	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/bids", a.ID), body, hdr)
	assert.Equal(t, http.StatusOK, w.Code)

	// immediate second attempt from the same user trips the limiter
	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/bids", a.ID),
		gin.H{"bidder": "alice", "amount": 2200}, hdr)
	check.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRegister_Conflict(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)
	env.users.Seed("alice", decimal.NewFromInt(5000))

	w := env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/register", a.ID),
		gin.H{"username": "alice"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/register", a.ID),
		gin.H{"username": "alice"}, nil)
	check.Equal(t, http.StatusConflict, w.Code)
}

func TestLiveAuctionFlow(t *testing.T) {
	env := newAPIEnv(t)
	env.clk.Advance(time.Millisecond)
	w := env.do(t, http.MethodPost, "/auctions/live", gin.H{
		"title":            "The Thinker",
		"artist":           "Auguste Rodin, 1902",
		"category":         "SCULPTURE",
		"image":            "https://example.com/thinker.jpg",
		"description":      "Bronze.",
		"start_price":      3500,
		"reserve_price":    5000,
		"duration_minutes": 1,
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	var a dto.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &a))
	check.Equal(t, "PENDING", a.Status)
	check.True(t, a.IsLive)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/start", a.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/auctions/%d", a.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got dto.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &got))
	check.Equal(t, "ACTIVE", got.Status)
	check.Equal(t, "BIDDING", got.LivePhase)

	// restarting an active live auction resets its window
	w = env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/start", a.ID), nil, nil)
	check.Equal(t, http.StatusOK, w.Code)
}

func TestStartTimedAuction_Conflict(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)
	w := env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/start", a.ID), nil, nil)
	check.Equal(t, http.StatusConflict, w.Code)
}

func TestLikeToggle(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/auctions/%d/like", a.ID),
		gin.H{"username": "alice"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.LikeResponse
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &resp))
	check.True(t, resp.Liked)
	check.Equal(t, 1, resp.LikesCount)
}

func TestDeleteAuction(t *testing.T) {
	env := newAPIEnv(t)
	a := env.createAuction(t)

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/auctions/%d", a.ID), nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/auctions/%d", a.ID), nil, nil)
	check.Equal(t, http.StatusNotFound, w.Code)

	// an active auction settles on delete, so it lands in history
	w = env.do(t, http.MethodGet, "/history", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var hist []dto.Auction
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Equal(t, 1, len(hist))
	check.Equal(t, a.ID, hist[0].ID)
}

func TestGetUser(t *testing.T) {
	env := newAPIEnv(t)
	env.users.Seed("alice", decimal.NewFromInt(5000))

	w := env.do(t, http.MethodGet, "/users/alice", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var u dto.User
	assert.Nil(t, json.Unmarshal(w.Body.Bytes(), &u))
	check.Equal(t, "alice", u.Username)
	check.Equal(t, "5000", u.Balance.String())

	w = env.do(t, http.MethodGet, "/users/nobody", nil, nil)
	check.Equal(t, http.StatusNotFound, w.Code)
}
