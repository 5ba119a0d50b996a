package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jbetancur12/matplan/internal/domain/costing"
	"github.com/jbetancur12/matplan/internal/domain/kardex"
	"github.com/jbetancur12/matplan/internal/domain/lots"
	"github.com/jbetancur12/matplan/internal/domain/materials"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type fixture struct {
	ledger    *Ledger
	lots      *lots.Memory
	kardex    *kardex.Memory
	materials *materials.Memory
	material  materials.Material
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lotRepo := lots.NewMemory()
	kardexRepo := kardex.NewMemory()
	materialRepo := materials.NewMemory()
	correctionRepo := lots.NewCorrectionMemory()
	log := slog.Default()

	m := materialRepo.Add(materials.Material{Code: "TELA-01", Name: "Canvas", Unit: "m", Active: true})
	eng := costing.NewEngine(lotRepo, materialRepo, log)
	ledger := NewLedger(NewSerialRunner(), lotRepo, kardexRepo, materialRepo, eng, correctionRepo, log)
	return &fixture{
		ledger:    ledger,
		lots:      lotRepo,
		kardex:    kardexRepo,
		materials: materialRepo,
		material:  m,
	}
}

func (f *fixture) receive(t *testing.T, code string, qty, cost string) *lots.Lot {
	t.Helper()
	lot, err := f.ledger.ReceiveLot(context.Background(), ReceiveRequest{
		MaterialID:      f.material.ID,
		WarehouseID:     1,
		SupplierLotCode: code,
		Quantity:        d(qty),
		UnitCost:        decimal.NewNullDecimal(d(cost)),
	})
	if err != nil {
		t.Fatalf("receive %s: %v", code, err)
	}
	return lot
}

func (f *fixture) mustReconcile(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	bal, err := f.ledger.Balance(ctx, f.material.ID, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	sum, err := f.lots.SumAvailable(ctx, f.material.ID, 1)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if !bal.Equal(sum) {
		t.Fatalf("kardex balance %s != lot availability %s", bal, sum)
	}
}

func TestReceiveLot(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "100")

	if !lot.QuantityAvailable.Equal(d("10")) {
		t.Errorf("available = %s, want 10", lot.QuantityAvailable)
	}
	bal, _ := f.ledger.Balance(context.Background(), f.material.ID, 1)
	if !bal.Equal(d("10")) {
		t.Errorf("kardex balance = %s, want 10", bal)
	}

	m, _ := f.materials.GetByID(context.Background(), f.material.ID)
	if !m.AverageCost.Equal(d("100")) {
		t.Errorf("average cost = %s, want 100", m.AverageCost)
	}
	f.mustReconcile(t)
}

func TestReceiveLot_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.ledger.ReceiveLot(ctx, ReceiveRequest{
		MaterialID: f.material.ID, WarehouseID: 1, SupplierLotCode: "L1",
		Quantity: d("0"),
	}); err == nil {
		t.Errorf("zero quantity should be rejected")
	}

	_, err := f.ledger.ReceiveLot(ctx, ReceiveRequest{
		MaterialID: f.material.ID, WarehouseID: 1, SupplierLotCode: "L1",
		Quantity: d("5"), UnitCost: decimal.NewNullDecimal(d("-1")),
	})
	var ice *costing.InvalidCostError
	if !errors.As(err, &ice) {
		t.Errorf("negative cost: expected *InvalidCostError, got %v", err)
	}

	if _, err := f.ledger.ReceiveLot(ctx, ReceiveRequest{
		MaterialID: 999, WarehouseID: 1, SupplierLotCode: "L1", Quantity: d("5"),
	}); !errors.Is(err, materials.ErrNotFound) {
		t.Errorf("unknown material: got %v", err)
	}
}

func TestReceiveLot_DuplicateKeyGrowsExistingLot(t *testing.T) {
	f := newFixture(t)
	first := f.receive(t, "L1", "10", "100")
	second := f.receive(t, "L1", "5", "100")

	if first.ID != second.ID {
		t.Fatalf("expected the same lot, got %d and %d", first.ID, second.ID)
	}
	if !second.QuantityInitial.Equal(d("15")) {
		t.Errorf("initial = %s, want 15", second.QuantityInitial)
	}
	if !second.QuantityAvailable.Equal(d("15")) {
		t.Errorf("available = %s, want 15", second.QuantityAvailable)
	}
	f.mustReconcile(t)
}

func TestReceiveLot_AverageCostScenario(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "L1", "10", "100")
	f.receive(t, "L2", "5", "120")

	m, _ := f.materials.GetByID(context.Background(), f.material.ID)
	want := d("1600").Div(d("15"))
	if !m.AverageCost.Equal(want) {
		t.Errorf("average = %s, want %s", m.AverageCost, want)
	}
}

func TestConsumeLot(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "100")

	out, err := f.ledger.ConsumeLot(context.Background(), lot.ID, d("4"), "production_order", 7)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !out.QuantityAvailable.Equal(d("6")) {
		t.Errorf("available = %s, want 6", out.QuantityAvailable)
	}

	lotID := lot.ID
	entries, err := f.ledger.Entries(context.Background(), kardex.Filter{LotID: &lotID})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	last := entries[len(entries)-1]
	if last.Type != kardex.Consumption {
		t.Errorf("last entry type = %s, want CONSUMPTION", last.Type)
	}
	if !last.Quantity.Equal(d("-4")) {
		t.Errorf("consumption quantity = %s, want -4", last.Quantity)
	}
	if !last.BalanceAfter.Equal(d("6")) {
		t.Errorf("balance after = %s, want 6", last.BalanceAfter)
	}
	f.mustReconcile(t)
}

func TestConsumeLot_InsufficientMutatesNothing(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "100")

	_, err := f.ledger.ConsumeLot(context.Background(), lot.ID, d("11"), "test", 0)
	var iqe *lots.InsufficientQuantityError
	if !errors.As(err, &iqe) {
		t.Fatalf("expected *InsufficientQuantityError, got %v", err)
	}
	if !iqe.Requested.Equal(d("11")) || !iqe.Available.Equal(d("10")) {
		t.Errorf("error detail = %+v", iqe)
	}

	got, _ := f.lots.GetByID(context.Background(), lot.ID)
	if !got.QuantityAvailable.Equal(d("10")) {
		t.Errorf("availability changed to %s", got.QuantityAvailable)
	}
	bal, _ := f.ledger.Balance(context.Background(), f.material.ID, 1)
	if !bal.Equal(d("10")) {
		t.Errorf("kardex balance changed to %s", bal)
	}
}

func TestConsumeLot_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "100")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, qty := range []string{"8", "5"} {
		wg.Add(1)
		go func(i int, qty string) {
			defer wg.Done()
			_, errs[i] = f.ledger.ConsumeLot(context.Background(), lot.ID, d(qty), "test", 0)
		}(i, qty)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			var iqe *lots.InsufficientQuantityError
			if !errors.As(err, &iqe) {
				t.Errorf("unexpected error kind: %v", err)
			}
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one of 8 and 5 to fail against 10, got %d failures", failures)
	}

	got, _ := f.lots.GetByID(context.Background(), lot.ID)
	if got.QuantityAvailable.IsNegative() {
		t.Errorf("availability went negative: %s", got.QuantityAvailable)
	}
	f.mustReconcile(t)
}

func TestConsumeLot_RetriesOnCASMiss(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "100")

	// Two forced misses stay within the retry budget.
	f.lots.ForceCASMisses(2)
	out, err := f.ledger.ConsumeLot(context.Background(), lot.ID, d("3"), "test", 0)
	if err != nil {
		t.Fatalf("expected retries to absorb two misses: %v", err)
	}
	if !out.QuantityAvailable.Equal(d("7")) {
		t.Errorf("available = %s, want 7", out.QuantityAvailable)
	}

	// Persistent misses exhaust the budget.
	f.lots.ForceCASMisses(10)
	_, err = f.ledger.ConsumeLot(context.Background(), lot.ID, d("1"), "test", 0)
	if !errors.Is(err, lots.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification after budget exhaustion, got %v", err)
	}
	f.lots.ForceCASMisses(0)
}

func TestConsumeBatch_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	l1 := f.receive(t, "L1", "10", "100")
	l2 := f.receive(t, "L2", "5", "120")

	// Second draw exceeds its lot: nothing may be consumed.
	err := f.ledger.ConsumeBatch(context.Background(), "production_order", 1, []Consumption{
		{LotID: l1.ID, Quantity: d("4")},
		{LotID: l2.ID, Quantity: d("6")},
	})
	var iqe *lots.InsufficientQuantityError
	if !errors.As(err, &iqe) {
		t.Fatalf("expected *InsufficientQuantityError, got %v", err)
	}

	g1, _ := f.lots.GetByID(context.Background(), l1.ID)
	g2, _ := f.lots.GetByID(context.Background(), l2.ID)
	if !g1.QuantityAvailable.Equal(d("10")) || !g2.QuantityAvailable.Equal(d("5")) {
		t.Errorf("partial consumption leaked: %s, %s", g1.QuantityAvailable, g2.QuantityAvailable)
	}
	f.mustReconcile(t)

	// Valid batch succeeds atomically.
	if err := f.ledger.ConsumeBatch(context.Background(), "production_order", 1, []Consumption{
		{LotID: l1.ID, Quantity: d("4")},
		{LotID: l2.ID, Quantity: d("5")},
	}); err != nil {
		t.Fatalf("valid batch: %v", err)
	}
	g1, _ = f.lots.GetByID(context.Background(), l1.ID)
	g2, _ = f.lots.GetByID(context.Background(), l2.ID)
	if !g1.QuantityAvailable.Equal(d("6")) || !g2.QuantityAvailable.Equal(d("0")) {
		t.Errorf("after batch: %s, %s", g1.QuantityAvailable, g2.QuantityAvailable)
	}
	f.mustReconcile(t)
}

func TestConsumeBatch_AggregatesDemandPerLot(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "100")

	// 6 + 6 against 10 must fail up front even though each draw alone fits.
	err := f.ledger.ConsumeBatch(context.Background(), "test", 0, []Consumption{
		{LotID: lot.ID, Quantity: d("6")},
		{LotID: lot.ID, Quantity: d("6")},
	})
	var iqe *lots.InsufficientQuantityError
	if !errors.As(err, &iqe) {
		t.Fatalf("expected *InsufficientQuantityError, got %v", err)
	}
	got, _ := f.lots.GetByID(context.Background(), lot.ID)
	if !got.QuantityAvailable.Equal(d("10")) {
		t.Errorf("availability changed to %s", got.QuantityAvailable)
	}
}

func TestCorrectCost(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "L1", "5", "120")
	lot := f.receive(t, "L2", "10", "90")

	out, err := f.ledger.CorrectCost(context.Background(), CorrectionRequest{
		LotID:       lot.ID,
		NewUnitCost: d("100"),
		Reason:      "invoice arrived",
		Actor:       "ana",
	})
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if !out.UnitCost.Decimal.Equal(d("100")) {
		t.Errorf("unit cost = %s, want 100", out.UnitCost.Decimal)
	}

	// (5*120 + 10*100) / 15
	m, _ := f.materials.GetByID(context.Background(), f.material.ID)
	want := d("1600").Div(d("15"))
	if !m.AverageCost.Equal(want) {
		t.Errorf("average after correction = %s, want %s", m.AverageCost, want)
	}

	cs, err := f.ledger.Corrections(context.Background(), lot.ID)
	if err != nil {
		t.Fatalf("corrections: %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("expected 1 correction record, got %d", len(cs))
	}
	if !cs[0].OldCost.Decimal.Equal(d("90")) || !cs[0].NewCost.Equal(d("100")) {
		t.Errorf("audit = %s -> %s", cs[0].OldCost.Decimal, cs[0].NewCost)
	}
	if cs[0].Actor != "ana" {
		t.Errorf("actor = %q", cs[0].Actor)
	}

	// Correction leaves quantities untouched and writes a zero-quantity marker.
	lotID := lot.ID
	entries, _ := f.ledger.Entries(context.Background(), kardex.Filter{LotID: &lotID})
	last := entries[len(entries)-1]
	if last.Type != kardex.Correction {
		t.Errorf("last entry = %s, want CORRECTION", last.Type)
	}
	if !last.Quantity.IsZero() {
		t.Errorf("correction moved stock: %s", last.Quantity)
	}
	bal, _ := f.ledger.Balance(context.Background(), f.material.ID, 1)
	if !bal.Equal(d("15")) {
		t.Errorf("balance after correction = %s, want 15", bal)
	}
	f.mustReconcile(t)
}

func TestCorrectCost_RejectsNegative(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "90")

	_, err := f.ledger.CorrectCost(context.Background(), CorrectionRequest{
		LotID: lot.ID, NewUnitCost: d("-5"), Actor: "ana",
	})
	var ice *costing.InvalidCostError
	if !errors.As(err, &ice) {
		t.Fatalf("expected *InvalidCostError, got %v", err)
	}
	got, _ := f.lots.GetByID(context.Background(), lot.ID)
	if !got.UnitCost.Decimal.Equal(d("90")) {
		t.Errorf("cost changed to %s", got.UnitCost.Decimal)
	}
}

func TestAdjust(t *testing.T) {
	f := newFixture(t)
	lot := f.receive(t, "L1", "10", "100")

	out, err := f.ledger.Adjust(context.Background(), AdjustmentRequest{
		LotID: lot.ID, Delta: d("-2"), Reason: "damaged in handling", Actor: "ana",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !out.QuantityAvailable.Equal(d("8")) {
		t.Errorf("available = %s, want 8", out.QuantityAvailable)
	}
	bal, _ := f.ledger.Balance(context.Background(), f.material.ID, 1)
	if !bal.Equal(d("8")) {
		t.Errorf("balance = %s, want 8", bal)
	}
	f.mustReconcile(t)

	if _, err := f.ledger.Adjust(context.Background(), AdjustmentRequest{
		LotID: lot.ID, Delta: d("0"), Actor: "ana",
	}); err == nil {
		t.Errorf("zero delta should be rejected")
	}

	// Cannot adjust above the initial quantity or below zero.
	if _, err := f.ledger.Adjust(context.Background(), AdjustmentRequest{
		LotID: lot.ID, Delta: d("5"), Actor: "ana",
	}); err == nil {
		t.Errorf("raising available above initial should fail")
	}
	if _, err := f.ledger.Adjust(context.Background(), AdjustmentRequest{
		LotID: lot.ID, Delta: d("-9"), Actor: "ana",
	}); err == nil {
		t.Errorf("dropping available below zero should fail")
	}
}

func TestLedger_ReconciliationAfterMixedSequence(t *testing.T) {
	f := newFixture(t)
	l1 := f.receive(t, "L1", "10", "100")
	l2 := f.receive(t, "L2", "5", "120")

	ctx := context.Background()
	if _, err := f.ledger.ConsumeLot(ctx, l1.ID, d("3"), "test", 0); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if _, err := f.ledger.Adjust(ctx, AdjustmentRequest{LotID: l2.ID, Delta: d("-1"), Reason: "recount", Actor: "ana"}); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if _, err := f.ledger.CorrectCost(ctx, CorrectionRequest{LotID: l1.ID, NewUnitCost: d("95"), Actor: "ana"}); err != nil {
		t.Fatalf("correct: %v", err)
	}
	f.receive(t, "L3", "2", "110")
	if err := f.ledger.ConsumeBatch(ctx, "test", 0, []Consumption{
		{LotID: l1.ID, Quantity: d("2")},
		{LotID: l2.ID, Quantity: d("4")},
	}); err != nil {
		t.Fatalf("batch: %v", err)
	}

	// 10-3-2 + 5-1-4 + 2 = 7
	bal, _ := f.ledger.Balance(ctx, f.material.ID, 1)
	if !bal.Equal(d("7")) {
		t.Errorf("balance = %s, want 7", bal)
	}
	f.mustReconcile(t)
}

func TestLedger_KardexRunningBalance(t *testing.T) {
	f := newFixture(t)
	l1 := f.receive(t, "L1", "10", "100")
	f.receive(t, "L2", "5", "120")
	if _, err := f.ledger.ConsumeLot(context.Background(), l1.ID, d("4"), "test", 0); err != nil {
		t.Fatalf("consume: %v", err)
	}

	mid := f.material.ID
	entries, err := f.ledger.Entries(context.Background(), kardex.Filter{MaterialID: &mid})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	running := decimal.Zero
	for i, e := range entries {
		running = running.Add(e.Quantity)
		if !e.BalanceAfter.Equal(running) {
			t.Errorf("entry %d: balance %s, want %s", i, e.BalanceAfter, running)
		}
	}

	// Receipt after consumption resumes from the reduced balance.
	f.receive(t, "L3", "1", "100")
	bal, _ := f.ledger.Balance(context.Background(), mid, 1)
	if !bal.Equal(d("12")) {
		t.Errorf("balance = %s, want 12", bal)
	}
}

type callTrace struct {
	mu     sync.Mutex
	events []string
}

func (tr *callTrace) add(ev string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.events = append(tr.events, ev)
}

func (tr *callTrace) reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.events = nil
}

func (tr *callTrace) snapshot() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.events...)
}

type lockTracingMaterials struct {
	*materials.Memory
	trace *callTrace
}

func (r *lockTracingMaterials) Lock(ctx context.Context, id int64) error {
	r.trace.add(fmt.Sprintf("lock %d", id))
	return r.Memory.Lock(ctx, id)
}

type appendTracingKardex struct {
	*kardex.Memory
	trace *callTrace
}

func (r *appendTracingKardex) Append(ctx context.Context, e kardex.Entry) (*kardex.Entry, error) {
	r.trace.add(fmt.Sprintf("append %d", e.MaterialID))
	return r.Memory.Append(ctx, e)
}

// Every mutation must take the material row lock before it writes a kardex
// entry; otherwise two transactions can compute balance_after from the same
// last balance. Multi-material batches take the locks in ascending id order.
func TestMutationsLockMaterialBeforeKardexAppend(t *testing.T) {
	trace := &callTrace{}
	lotRepo := lots.NewMemory()
	materialRepo := &lockTracingMaterials{Memory: materials.NewMemory(), trace: trace}
	kardexRepo := &appendTracingKardex{Memory: kardex.NewMemory(), trace: trace}
	log := slog.Default()

	m1 := materialRepo.Add(materials.Material{Code: "TELA-01", Name: "Canvas", Unit: "m", Active: true})
	m2 := materialRepo.Add(materials.Material{Code: "HILO-01", Name: "Thread", Unit: "u", Active: true})

	eng := costing.NewEngine(lotRepo, materialRepo, log)
	ledger := NewLedger(NewSerialRunner(), lotRepo, kardexRepo, materialRepo, eng, lots.NewCorrectionMemory(), log)

	ctx := context.Background()
	receive := func(materialID int64, code, qty string) *lots.Lot {
		t.Helper()
		lot, err := ledger.ReceiveLot(ctx, ReceiveRequest{
			MaterialID:      materialID,
			WarehouseID:     1,
			SupplierLotCode: code,
			Quantity:        d(qty),
			UnitCost:        decimal.NewNullDecimal(d("100")),
		})
		if err != nil {
			t.Fatalf("receive %s: %v", code, err)
		}
		return lot
	}

	// lockPrecedesAppend asserts the material's lock event comes before its
	// first kardex append in the recorded window.
	lockPrecedesAppend := func(events []string, materialID int64) {
		t.Helper()
		lockAt, appendAt := -1, -1
		for i, ev := range events {
			if ev == fmt.Sprintf("lock %d", materialID) && lockAt == -1 {
				lockAt = i
			}
			if ev == fmt.Sprintf("append %d", materialID) && appendAt == -1 {
				appendAt = i
			}
		}
		if appendAt == -1 {
			t.Fatalf("no kardex append for material %d in %v", materialID, events)
		}
		if lockAt == -1 || lockAt > appendAt {
			t.Errorf("material %d lock at %d, append at %d: %v", materialID, lockAt, appendAt, events)
		}
	}

	l1 := receive(m1.ID, "L1", "20")
	lockPrecedesAppend(trace.snapshot(), m1.ID)
	l2 := receive(m2.ID, "L2", "20")

	trace.reset()
	if _, err := ledger.ConsumeLot(ctx, l1.ID, d("4"), "production_order", 1); err != nil {
		t.Fatalf("consume: %v", err)
	}
	lockPrecedesAppend(trace.snapshot(), m1.ID)

	trace.reset()
	if _, err := ledger.Adjust(ctx, AdjustmentRequest{LotID: l1.ID, Delta: d("-1"), Reason: "count", Actor: "qa"}); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	lockPrecedesAppend(trace.snapshot(), m1.ID)

	trace.reset()
	if _, err := ledger.CorrectCost(ctx, CorrectionRequest{LotID: l1.ID, NewUnitCost: d("120"), Reason: "invoice", Actor: "qa"}); err != nil {
		t.Fatalf("correct: %v", err)
	}
	lockPrecedesAppend(trace.snapshot(), m1.ID)

	// Batch touching both materials, listed in descending material order on
	// purpose: both locks are taken, ascending, before the first append.
	trace.reset()
	if err := ledger.ConsumeBatch(ctx, "production_order", 1, []Consumption{
		{LotID: l2.ID, Quantity: d("3")},
		{LotID: l1.ID, Quantity: d("2")},
	}); err != nil {
		t.Fatalf("batch: %v", err)
	}
	events := trace.snapshot()
	lockPrecedesAppend(events, m1.ID)
	lockPrecedesAppend(events, m2.ID)

	var locks []string
	firstAppend := -1
	for i, ev := range events {
		if strings.HasPrefix(ev, "lock ") {
			if firstAppend == -1 {
				locks = append(locks, ev)
			} else {
				t.Errorf("lock taken after first append: %v", events)
			}
		}
		if strings.HasPrefix(ev, "append ") && firstAppend == -1 {
			firstAppend = i
		}
	}
	want := []string{fmt.Sprintf("lock %d", m1.ID), fmt.Sprintf("lock %d", m2.ID)}
	if len(locks) != 2 || locks[0] != want[0] || locks[1] != want[1] {
		t.Errorf("batch lock order = %v, want %v", locks, want)
	}
}
