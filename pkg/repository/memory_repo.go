package repository

import (
	"context"
	"sync"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

// memoryRepo keeps orders in an insertion-ordered slice guarded by a single
// RWMutex. This is the default demo backend; the lock is what makes the
// single-writer assumption of the original design hold under real
// parallelism.
type memoryRepo struct {
	mu     sync.RWMutex
	orders []*model.Order
	byID   map[string]int
}

func NewMemoryRepo() OrderRepo {
	return &memoryRepo{byID: make(map[string]int)}
}

func (r *memoryRepo) Insert(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[order.OrderID] = len(r.orders)
	r.orders = append(r.orders, order.Clone())
	return nil
}

func (r *memoryRepo) Get(_ context.Context, orderID string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return r.orders[idx].Clone(), nil
}

func (r *memoryRepo) List(_ context.Context) ([]*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Order, len(r.orders))
	for i, o := range r.orders {
		out[i] = o.Clone()
	}
	return out, nil
}

func (r *memoryRepo) ListByCustomer(_ context.Context, customerID string) ([]*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Order
	for _, o := range r.orders {
		if o.Customer.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[order.OrderID]
	if !ok {
		return ErrOrderNotFound
	}
	r.orders[idx] = order.Clone()
	return nil
}

func (r *memoryRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders), nil
}
