package in_memory

import (
	"context"
	"sync"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

// MemoryRepo keeps board and history snapshots in process. Used in tests and
// when no database is configured.
type MemoryRepo struct {
	mu       sync.Mutex
	auctions []domain.Auction
	history  []domain.Auction
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) LoadAuctions(ctx context.Context) ([]*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Auction, 0, len(r.auctions))
	for i := range r.auctions {
		cp := r.auctions[i].Snapshot()
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepo) SaveAuctions(ctx context.Context, auctions []domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions = append([]domain.Auction(nil), auctions...)
	return nil
}

func (r *MemoryRepo) LoadHistory(ctx context.Context) ([]domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Auction(nil), r.history...), nil
}

func (r *MemoryRepo) SaveHistory(ctx context.Context, history []domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append([]domain.Auction(nil), history...)
	return nil
}
