package lots

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/infra/db"
)

type Repo interface {
	Insert(ctx context.Context, l Lot) (*Lot, error)
	GetByID(ctx context.Context, id int64) (*Lot, error)
	GetByKey(ctx context.Context, k Key) (*Lot, error)
	// AddQuantity grows both initial and available quantity of an existing
	// lot (repeat receipt under the same supplier lot code).
	AddQuantity(ctx context.Context, id int64, qty decimal.Decimal) (*Lot, error)
	// Consume decrements availability only when it still equals expected
	// (compare-and-swap). ErrConcurrentModification on a stale expectation.
	Consume(ctx context.Context, id int64, qty, expected decimal.Decimal) (*Lot, error)
	// AdjustAvailable applies a signed manual adjustment to availability,
	// rejecting any result outside [0, quantity_initial].
	AdjustAvailable(ctx context.Context, id int64, delta decimal.Decimal) (*Lot, error)
	SetUnitCost(ctx context.Context, id int64, cost decimal.Decimal) (*Lot, error)
	// ListAvailable returns lots with availability > 0 in consumption order.
	// Read-only; ordering ties are broken by lot id for determinism.
	ListAvailable(ctx context.Context, materialID, warehouseID int64, p Policy) ([]Lot, error)
	// ListByMaterial returns every lot of a material across warehouses,
	// used by the costing replay.
	ListByMaterial(ctx context.Context, materialID int64) ([]Lot, error)
	SumAvailable(ctx context.Context, materialID, warehouseID int64) (decimal.Decimal, error)
}

// CorrectionRepo persists the audit trail of retroactive cost changes.
type CorrectionRepo interface {
	Insert(ctx context.Context, c Correction) (*Correction, error)
	ListByLot(ctx context.Context, lotID int64) ([]Correction, error)
}

/* Postgres implementation */

type PG struct{ pool *pgxpool.Pool }

func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

var _ Repo = (*PG)(nil)

const lotCols = `id, material_id, warehouse_id, supplier_lot_code, quantity_initial,
	quantity_available, unit_cost, received_at, expires_at, inspection_id, created_at`

func scanLot(row pgx.Row) (*Lot, error) {
	var l Lot
	err := row.Scan(&l.ID, &l.MaterialID, &l.WarehouseID, &l.SupplierLotCode,
		&l.QuantityInitial, &l.QuantityAvailable, &l.UnitCost,
		&l.ReceivedAt, &l.ExpiresAt, &l.InspectionID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *PG) Insert(ctx context.Context, l Lot) (*Lot, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO raw_material_lots
			(material_id, warehouse_id, supplier_lot_code, quantity_initial,
			 quantity_available, unit_cost, received_at, expires_at, inspection_id)
		VALUES ($1,$2,$3,$4,$4,$5,$6,$7,$8)
		RETURNING `+lotCols+`
	`, l.MaterialID, l.WarehouseID, l.SupplierLotCode, l.QuantityInitial,
		l.UnitCost, l.ReceivedAt, l.ExpiresAt, l.InspectionID)

	out, err := scanLot(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

func (r *PG) GetByID(ctx context.Context, id int64) (*Lot, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT `+lotCols+` FROM raw_material_lots WHERE id = $1
	`, id)
	return scanLot(row)
}

func (r *PG) GetByKey(ctx context.Context, k Key) (*Lot, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT `+lotCols+` FROM raw_material_lots
		WHERE material_id = $1 AND warehouse_id = $2 AND supplier_lot_code = $3
	`, k.MaterialID, k.WarehouseID, k.SupplierLotCode)
	return scanLot(row)
}

func (r *PG) AddQuantity(ctx context.Context, id int64, qty decimal.Decimal) (*Lot, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		UPDATE raw_material_lots
		SET quantity_initial = quantity_initial + $2,
		    quantity_available = quantity_available + $2
		WHERE id = $1
		RETURNING `+lotCols+`
	`, id, qty)
	return scanLot(row)
}

func (r *PG) Consume(ctx context.Context, id int64, qty, expected decimal.Decimal) (*Lot, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		UPDATE raw_material_lots
		SET quantity_available = quantity_available - $2
		WHERE id = $1 AND quantity_available = $3
		RETURNING `+lotCols+`
	`, id, qty, expected)

	out, err := scanLot(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// CAS missed: distinguish unknown lot from stale expectation.
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrConcurrentModification
}

func (r *PG) AdjustAvailable(ctx context.Context, id int64, delta decimal.Decimal) (*Lot, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		UPDATE raw_material_lots
		SET quantity_available = quantity_available + $2
		WHERE id = $1
		  AND quantity_available + $2 >= 0
		  AND quantity_available + $2 <= quantity_initial
		RETURNING `+lotCols+`
	`, id, delta)

	out, err := scanLot(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &InsufficientQuantityError{LotID: id, Requested: delta.Abs(), Available: cur.QuantityAvailable}
}

func (r *PG) SetUnitCost(ctx context.Context, id int64, cost decimal.Decimal) (*Lot, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		UPDATE raw_material_lots SET unit_cost = $2 WHERE id = $1
		RETURNING `+lotCols+`
	`, id, cost)
	return scanLot(row)
}

func (r *PG) ListAvailable(ctx context.Context, materialID, warehouseID int64, p Policy) ([]Lot, error) {
	order := `received_at, id`
	if p == PolicyFEFO {
		order = `expires_at NULLS LAST, received_at, id`
	}
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT `+lotCols+` FROM raw_material_lots
		WHERE material_id = $1 AND warehouse_id = $2 AND quantity_available > 0
		ORDER BY `+order, materialID, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

func (r *PG) ListByMaterial(ctx context.Context, materialID int64) ([]Lot, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT `+lotCols+` FROM raw_material_lots
		WHERE material_id = $1
		ORDER BY received_at, id
	`, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

func collectLots(rows pgx.Rows) ([]Lot, error) {
	var out []Lot
	for rows.Next() {
		var l Lot
		if err := rows.Scan(&l.ID, &l.MaterialID, &l.WarehouseID, &l.SupplierLotCode,
			&l.QuantityInitial, &l.QuantityAvailable, &l.UnitCost,
			&l.ReceivedAt, &l.ExpiresAt, &l.InspectionID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PG) SumAvailable(ctx context.Context, materialID, warehouseID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := db.From(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_available), 0)
		FROM raw_material_lots
		WHERE material_id = $1 AND warehouse_id = $2
	`, materialID, warehouseID).Scan(&sum)
	return sum, err
}

/* Cost-correction audit */

type CorrectionPG struct{ pool *pgxpool.Pool }

func NewCorrectionPG(pool *pgxpool.Pool) *CorrectionPG { return &CorrectionPG{pool: pool} }

var _ CorrectionRepo = (*CorrectionPG)(nil)

func (r *CorrectionPG) Insert(ctx context.Context, c Correction) (*Correction, error) {
	row := db.From(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lot_cost_corrections (lot_id, old_cost, new_cost, reason, actor)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, lot_id, old_cost, new_cost, reason, actor, created_at
	`, c.LotID, c.OldCost, c.NewCost, c.Reason, c.Actor)
	var out Correction
	if err := row.Scan(&out.ID, &out.LotID, &out.OldCost, &out.NewCost, &out.Reason, &out.Actor, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CorrectionPG) ListByLot(ctx context.Context, lotID int64) ([]Correction, error) {
	rows, err := db.From(ctx, r.pool).Query(ctx, `
		SELECT id, lot_id, old_cost, new_cost, reason, actor, created_at
		FROM lot_cost_corrections
		WHERE lot_id = $1
		ORDER BY id
	`, lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Correction
	for rows.Next() {
		var c Correction
		if err := rows.Scan(&c.ID, &c.LotID, &c.OldCost, &c.NewCost, &c.Reason, &c.Actor, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
