package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fentiaanyun/auction-game/internal/domain"
	"github.com/fentiaanyun/auction-game/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)
var _ port.UserStore = (*PgRepo)(nil)

// PgRepo persists auctions, history and users as JSONB documents keyed by
// id. One repo serves both the Repository and UserStore ports.
type PgRepo struct {
	pool *pgxpool.Pool
}

// NewPgRepo creates the pool; call Close when finished with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgRepo) LoadAuctions(ctx context.Context) ([]*domain.Auction, error) {
	rows, err := p.pool.Query(ctx, `SELECT data FROM auctions ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Auction
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a domain.Auction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		res = append(res, &a)
	}
	return res, rows.Err()
}

// SaveAuctions replaces the stored board with the given snapshot.
func (p *PgRepo) SaveAuctions(ctx context.Context, auctions []domain.Auction) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]int64, 0, len(auctions))
	for i := range auctions {
		a := &auctions[i]
		ids = append(ids, a.ID)
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
INSERT INTO auctions(id, data, updated_at)
VALUES($1, $2, NOW())
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
`, a.ID, data)
		if err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM auctions WHERE NOT (id = ANY($1))`, ids); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *PgRepo) LoadHistory(ctx context.Context) ([]domain.Auction, error) {
	rows, err := p.pool.Query(ctx, `SELECT data FROM auction_history ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Auction
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a domain.Auction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// SaveHistory upserts archived auctions. History rows are never deleted.
func (p *PgRepo) SaveHistory(ctx context.Context, history []domain.Auction) error {
	for i := range history {
		a := &history[i]
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		_, err = p.pool.Exec(ctx, `
INSERT INTO auction_history(id, data, archived_at)
VALUES($1, $2, NOW())
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
`, a.ID, data)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *PgRepo) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM users WHERE username = $1`, username).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *PgRepo) SaveUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO users(username, data, updated_at)
VALUES($1, $2, NOW())
ON CONFLICT (username) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
`, u.Username, data)
	return err
}
