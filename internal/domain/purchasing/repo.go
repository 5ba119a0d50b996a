package purchasing

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

type Repo interface {
	// BestPrice returns the lowest known supplier price for a material,
	// most recent quote winning ties. Nil when no history exists.
	BestPrice(ctx context.Context, materialID int64) (*SupplierPrice, error)
}

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

func (r *PG) BestPrice(ctx context.Context, materialID int64) (*SupplierPrice, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT p.id, p.material_id, p.supplier_id, COALESCE(s.name, ''), p.unit_price, p.quoted_at
		FROM supplier_prices p
		LEFT JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.material_id = $1
		ORDER BY p.unit_price, p.quoted_at DESC
		LIMIT 1
	`, materialID)

	var p SupplierPrice
	if err := row.Scan(&p.ID, &p.MaterialID, &p.SupplierID, &p.SupplierName, &p.UnitPrice, &p.QuotedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Memory is an in-memory Repo for tests and DB-free wiring.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  []SupplierPrice
}

func NewMemory() *Memory { return &Memory{nextID: 1} }

var _ Repo = (*Memory)(nil)

func (r *Memory) Add(p SupplierPrice) SupplierPrice {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	r.items = append(r.items, p)
	return p
}

func (r *Memory) BestPrice(_ context.Context, materialID int64) (*SupplierPrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *SupplierPrice
	for i := range r.items {
		p := r.items[i]
		if p.MaterialID != materialID {
			continue
		}
		if best == nil ||
			p.UnitPrice.LessThan(best.UnitPrice) ||
			(p.UnitPrice.Equal(best.UnitPrice) && p.QuotedAt.After(best.QuotedAt)) {
			cp := p
			best = &cp
		}
	}
	return best, nil
}
