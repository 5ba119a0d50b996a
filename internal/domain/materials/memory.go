package materials

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Memory is an in-memory Repo for tests and DB-free wiring.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]Material
}

func NewMemory() *Memory {
	return &Memory{nextID: 1, items: map[int64]Material{}}
}

var _ Repo = (*Memory)(nil)

// Add registers a material and returns its assigned ID.
func (r *Memory) Add(m Material) Material {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		m.ID = r.nextID
		r.nextID++
	} else if m.ID >= r.nextID {
		r.nextID = m.ID + 1
	}
	r.items[m.ID] = m
	return m
}

func (r *Memory) GetByID(_ context.Context, id int64) (*Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *Memory) List(_ context.Context, onlyActive bool) ([]Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Material
	for _, m := range r.items {
		if onlyActive && !m.Active {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *Memory) Lock(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	return nil
}

func (r *Memory) UpdateAverageCost(_ context.Context, id int64, avg decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	m.AverageCost = avg
	r.items[id] = m
	return nil
}
