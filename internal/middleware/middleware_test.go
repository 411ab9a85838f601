package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peterldowns/testy/check"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func throttledRouter(interval time.Duration) *gin.Engine {
	r := gin.New()
	b := NewBidThrottle(interval)
	r.POST("/auctions/:id/bids", b.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func post(r *gin.Engine, path, user string) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestBidThrottle(t *testing.T) {
	r := throttledRouter(time.Minute)

	check.Equal(t, http.StatusOK, post(r, "/auctions/1/bids", "alice"))
	// same user, same auction, inside the interval
	check.Equal(t, http.StatusTooManyRequests, post(r, "/auctions/1/bids", "alice"))
	// same user on a different auction is not throttled
	check.Equal(t, http.StatusOK, post(r, "/auctions/2/bids", "alice"))
	// a different user on the contested auction is not throttled
	check.Equal(t, http.StatusOK, post(r, "/auctions/1/bids", "bob"))
}

func TestBidThrottle_RequiresActingUser(t *testing.T) {
	r := throttledRouter(time.Minute)
	check.Equal(t, http.StatusBadRequest, post(r, "/auctions/1/bids", ""))
}

func TestBidThrottle_IntervalExpires(t *testing.T) {
	r := throttledRouter(5 * time.Millisecond)

	check.Equal(t, http.StatusOK, post(r, "/auctions/1/bids", "alice"))
	time.Sleep(10 * time.Millisecond)
	check.Equal(t, http.StatusOK, post(r, "/auctions/1/bids", "alice"))
}
