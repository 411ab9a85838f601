package port

import (
	"context"

	"github.com/fentiaanyun/auction-game/internal/domain"
)

// Repository persists the auction board and the archival history. The engine
// treats its in-memory state as authoritative; writes are fire-and-forget and
// a failed write is the repository's problem to retry, not the engine's.
type Repository interface {
	LoadAuctions(ctx context.Context) ([]*domain.Auction, error)
	SaveAuctions(ctx context.Context, auctions []domain.Auction) error
	LoadHistory(ctx context.Context) ([]domain.Auction, error)
	SaveHistory(ctx context.Context, history []domain.Auction) error
}

// UserStore owns the user ledger. GetUser returns nil without error when the
// user does not exist.
type UserStore interface {
	GetUser(ctx context.Context, username string) (*domain.User, error)
	SaveUser(ctx context.Context, u *domain.User) error
}
