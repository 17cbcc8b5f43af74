package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

func order(id, customerID string) *model.Order {
	return &model.Order{
		OrderID:     id,
		OrderNumber: "ORD-2026-" + id,
		Status:      model.OrderStatusPending,
		Channel:     model.ChannelOnline,
		Customer:    model.CustomerInfo{CustomerID: customerID},
		Items: []model.OrderItem{
			{ProductName: "Widget", Quantity: 1, UnitPrice: 10, TotalPrice: 10},
		},
		Metadata: map[string]any{},
	}
}

func TestMemoryRepoCRUD(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, order("o1", "c1")))

	got, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", got.OrderID)

	got.Status = model.OrderStatusConfirmed
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, again.Status)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryRepoNotFound(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	err = repo.Update(ctx, order("missing", "c1"))
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMemoryRepoListPreservesInsertionOrder(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, order(fmt.Sprintf("o%d", i), "c1")))
	}

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 5)
	for i, o := range orders {
		assert.Equal(t, fmt.Sprintf("o%d", i), o.OrderID)
	}
}

func TestMemoryRepoHandsOutClones(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, order("o1", "c1")))

	got, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	got.Status = model.OrderStatusCancelled
	got.Items[0].Quantity = 99
	got.Metadata["tampered"] = true

	clean, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, clean.Status)
	assert.Equal(t, 1, clean.Items[0].Quantity)
	assert.NotContains(t, clean.Metadata, "tampered")
}

func TestMemoryRepoListByCustomer(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, order("o1", "c1")))
	require.NoError(t, repo.Insert(ctx, order("o2", "c2")))
	require.NoError(t, repo.Insert(ctx, order("o3", "c1")))

	got, err := repo.ListByCustomer(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "o1", got[0].OrderID)
	assert.Equal(t, "o3", got[1].OrderID)

	empty, err := repo.ListByCustomer(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRepoConcurrentWriters(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Insert(ctx, order(fmt.Sprintf("o%d", i), "c1"))
			_, _ = repo.List(ctx)
		}(i)
	}
	wg.Wait()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers, n)
}
