package kardex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

type Repo interface {
	// Append inserts an entry, computing BalanceAfter from the last balance
	// of the (material, warehouse) pair. Must run inside the same
	// transaction as the lot mutation that caused the movement.
	Append(ctx context.Context, e Entry) (*Entry, error)
	LastBalance(ctx context.Context, materialID, warehouseID int64) (decimal.Decimal, error)
	List(ctx context.Context, f Filter) ([]Entry, error)
}

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

const entryCols = `id, material_id, warehouse_id, lot_id, movement_type, quantity,
	balance_after, reference_type, reference_id, note, occurred_at, created_at`

func (r *PG) Append(ctx context.Context, e Entry) (*Entry, error) {
	q := db.From(ctx, r.pool)

	last, err := r.lastBalance(ctx, q, e.MaterialID, e.WarehouseID)
	if err != nil {
		return nil, err
	}
	e.BalanceAfter = last.Add(e.Quantity)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	row := q.QueryRow(ctx, `
		INSERT INTO kardex_entries
			(material_id, warehouse_id, lot_id, movement_type, quantity,
			 balance_after, reference_type, reference_id, note, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+entryCols,
		e.MaterialID, e.WarehouseID, e.LotID, string(e.Type), e.Quantity,
		e.BalanceAfter, e.ReferenceType, e.ReferenceID, e.Note, e.OccurredAt)
	return scanEntry(row)
}

func (r *PG) LastBalance(ctx context.Context, materialID, warehouseID int64) (decimal.Decimal, error) {
	return r.lastBalance(ctx, db.From(ctx, r.pool), materialID, warehouseID)
}

func (r *PG) lastBalance(ctx context.Context, q db.Querier, materialID, warehouseID int64) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE((
			SELECT balance_after FROM kardex_entries
			WHERE material_id = $1 AND warehouse_id = $2
			ORDER BY occurred_at DESC, id DESC
			LIMIT 1
		), 0)
	`, materialID, warehouseID).Scan(&bal)
	return bal, err
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	if err := row.Scan(&e.ID, &e.MaterialID, &e.WarehouseID, &e.LotID, &e.Type,
		&e.Quantity, &e.BalanceAfter, &e.ReferenceType, &e.ReferenceID,
		&e.Note, &e.OccurredAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PG) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.MaterialID != nil {
		add("material_id = $%d", *f.MaterialID)
	}
	if f.WarehouseID != nil {
		add("warehouse_id = $%d", *f.WarehouseID)
	}
	if f.LotID != nil {
		add("lot_id = $%d", *f.LotID)
	}
	if f.ReferenceType != "" {
		add("reference_type = $%d", f.ReferenceType)
	}
	if f.From != nil {
		add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("occurred_at < $%d", *f.To)
	}

	q := `SELECT ` + entryCols + ` FROM kardex_entries`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY occurred_at, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := db.From(ctx, r.pool).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.MaterialID, &e.WarehouseID, &e.LotID, &e.Type,
			&e.Quantity, &e.BalanceAfter, &e.ReferenceType, &e.ReferenceID,
			&e.Note, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
