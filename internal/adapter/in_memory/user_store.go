package in_memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

var _ port.UserStore = (*UserStore)(nil)

// UserStore is an in-process ledger. GetUser returns nil, nil for unknown
// users per the port contract.
type UserStore struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

// Seed registers a user with an opening balance, replacing any existing
// record with the same name.
func (s *UserStore) Seed(username string, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = domain.User{Username: username, Balance: balance}
}

func (s *UserStore) GetUser(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, nil
	}
	cp := u
	cp.BidHistory = append([]domain.BidRecord(nil), u.BidHistory...)
	cp.WonAuctions = append([]domain.WonRecord(nil), u.WonAuctions...)
	cp.Registrations = append([]domain.Registration(nil), u.Registrations...)
	return &cp, nil
}

func (s *UserStore) SaveUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Username] = *u
	return nil
}
