package port

import (
	"context"

	"github.com/fentiaanyun/auction-game/internal/domain"
)

type Cache interface {
	SetBoard(ctx context.Context, auctions []domain.Auction) error
	GetBoard(ctx context.Context) ([]domain.Auction, error)
	Invalidate(ctx context.Context) error
}
