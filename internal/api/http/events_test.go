package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestServeEvents_StreamsEngineEvents(t *testing.T) {
	env := newAPIEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Nil(t, err)
	defer conn.Close()
	check.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	a := env.createAuction(t)

	var ev struct {
		Type      string `json:"type"`
		AuctionID int64  `json:"auction_id"`
	}
	assert.Nil(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	assert.Nil(t, conn.ReadJSON(&ev))
	check.Equal(t, "auction_created", ev.Type)
	check.Equal(t, a.ID, ev.AuctionID)
}
