package kardex

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func append3(t *testing.T, r *Memory) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	lotA, lotB := int64(1), int64(2)

	entries := []Entry{
		{MaterialID: 1, WarehouseID: 1, LotID: &lotA, Type: Receipt,
			Quantity: decimal.NewFromInt(10), ReferenceType: "purchase", OccurredAt: base},
		{MaterialID: 1, WarehouseID: 1, LotID: &lotA, Type: Consumption,
			Quantity: decimal.NewFromInt(-4), ReferenceType: "production_order", OccurredAt: base.Add(time.Hour)},
		{MaterialID: 2, WarehouseID: 1, LotID: &lotB, Type: Receipt,
			Quantity: decimal.NewFromInt(7), ReferenceType: "purchase", OccurredAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		if _, err := r.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestMemory_RunningBalancePerPair(t *testing.T) {
	r := NewMemory()
	append3(t, r)
	ctx := context.Background()

	bal, err := r.LastBalance(ctx, 1, 1)
	if err != nil {
		t.Fatalf("last balance: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(6)) {
		t.Errorf("material 1 balance = %s, want 6", bal)
	}

	bal, _ = r.LastBalance(ctx, 2, 1)
	if !bal.Equal(decimal.NewFromInt(7)) {
		t.Errorf("material 2 balance = %s, want 7", bal)
	}

	// Untouched pair starts at zero.
	bal, _ = r.LastBalance(ctx, 1, 9)
	if !bal.IsZero() {
		t.Errorf("unknown pair balance = %s, want 0", bal)
	}
}

func TestMemory_ListFilters(t *testing.T) {
	r := NewMemory()
	append3(t, r)
	ctx := context.Background()

	m1 := int64(1)
	got, err := r.List(ctx, Filter{MaterialID: &m1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("material filter: got %d entries, want 2", len(got))
	}

	lotB := int64(2)
	got, _ = r.List(ctx, Filter{LotID: &lotB})
	if len(got) != 1 || got[0].MaterialID != 2 {
		t.Errorf("lot filter returned wrong rows: %+v", got)
	}

	got, _ = r.List(ctx, Filter{ReferenceType: "production_order"})
	if len(got) != 1 || got[0].Type != Consumption {
		t.Errorf("reference filter returned wrong rows: %+v", got)
	}

	from := time.Date(2026, 8, 1, 1, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 2, 0, 0, 0, time.UTC)
	got, _ = r.List(ctx, Filter{From: &from, To: &to})
	if len(got) != 1 || got[0].Type != Consumption {
		t.Errorf("time window returned wrong rows: %+v", got)
	}
}

func TestMemory_ListPagination(t *testing.T) {
	r := NewMemory()
	append3(t, r)
	ctx := context.Background()

	got, _ := r.List(ctx, Filter{Limit: 2})
	if len(got) != 2 {
		t.Errorf("limit 2: got %d", len(got))
	}

	got, _ = r.List(ctx, Filter{Offset: 2})
	if len(got) != 1 || got[0].MaterialID != 2 {
		t.Errorf("offset 2 returned wrong rows: %+v", got)
	}

	got, _ = r.List(ctx, Filter{Offset: 99})
	if len(got) != 0 {
		t.Errorf("offset beyond end: got %d rows", len(got))
	}
}

func TestSigned(t *testing.T) {
	q := decimal.NewFromInt(5)
	if !Signed(Receipt, q).Equal(q) {
		t.Errorf("receipt should stay positive")
	}
	if !Signed(Consumption, q).Equal(q.Neg()) {
		t.Errorf("consumption should be negated")
	}
	if !Signed(ManualAdjustment, q).Equal(q) {
		t.Errorf("manual adjustment keeps the caller's sign")
	}
}
