package in_memory

import (
	"context"
	"sync"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

var _ port.Cache = (*Cache)(nil)

type Cache struct {
	mu    sync.Mutex
	board []domain.Auction
	set   bool
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) SetBoard(ctx context.Context, auctions []domain.Auction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.board = append([]domain.Auction(nil), auctions...)
	c.set = true
	return nil
}

func (c *Cache) GetBoard(ctx context.Context) ([]domain.Auction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return nil, nil
	}
	return append([]domain.Auction(nil), c.board...), nil
}

func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.board = nil
	c.set = false
	return nil
}
