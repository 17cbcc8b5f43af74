package service

import (
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-omnichannel/orderservice/pkg/client"
	"github.com/cloud-omnichannel/orderservice/pkg/model"
	"github.com/cloud-omnichannel/orderservice/pkg/repository"
)

type stubInventory struct {
	err   error
	calls int
}

func (s *stubInventory) CheckAvailability(_ context.Context, _ []model.OrderItem) error {
	s.calls++
	return s.err
}

type statusChange struct {
	orderID string
	status  model.OrderStatus
}

type recordingNotifier struct {
	confirmations []string
	statusChanges []statusChange
}

func (n *recordingNotifier) SendConfirmation(orderID string) {
	n.confirmations = append(n.confirmations, orderID)
}

func (n *recordingNotifier) NotifyStatusChange(orderID string, status model.OrderStatus) {
	n.statusChanges = append(n.statusChanges, statusChange{orderID, status})
}

type recordingAnalytics struct {
	created []string
}

func (a *recordingAnalytics) RecordOrderCreated(orderID string) {
	a.created = append(a.created, orderID)
}

var fixedNow = time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	svc       *OrderService
	repo      repository.OrderRepo
	inventory *stubInventory
	notifier  *recordingNotifier
	analytics *recordingAnalytics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		repo:      repository.NewMemoryRepo(),
		inventory: &stubInventory{},
		notifier:  &recordingNotifier{},
		analytics: &recordingAnalytics{},
	}
	env.svc = NewOrderService(env.repo, env.inventory, env.notifier, env.analytics, logger)
	env.svc.now = func() time.Time { return fixedNow }
	env.svc.rng = rand.New(rand.NewSource(42))
	return env
}

func validCreate() *model.OrderCreate {
	return &model.OrderCreate{
		Channel: model.ChannelOnline,
		Customer: model.CustomerInfo{
			CustomerID:  "CUST-1001",
			FirstName:   "Alice",
			LastName:    "Johnson",
			Email:       "alice.johnson@email.com",
			LoyaltyTier: "gold",
		},
		ShippingAddress: model.ShippingAddress{
			StreetAddress: "123 Tech Street",
			City:          "Berlin",
			State:         "Berlin",
			PostalCode:    "10115",
			Country:       "Germany",
		},
		Items: []model.OrderItem{
			{ProductID: "PROD-001", ProductName: "Widget", SKU: "SKU-1", Category: model.CategoryElectronics, Quantity: 2, UnitPrice: 10, TotalPrice: 20},
			{ProductID: "PROD-002", ProductName: "Gadget", SKU: "SKU-2", Category: model.CategoryElectronics, Quantity: 1, UnitPrice: 5, TotalPrice: 5},
		},
		PaymentMethod: "credit_card",
	}
}

func TestCreateOrderDerivesMoneyFields(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.svc.CreateOrder(context.Background(), validCreate(), CreateOptions{ValidateInventory: true, SendConfirmation: true})
	require.NoError(t, err)

	// $10 x 2 + $5 x 1: subtotal 25.00, 8% tax 2.00, under the free-shipping
	// floor so 9.99 shipping, total 36.99
	assert.InDelta(t, 25.00, order.Subtotal, model.MoneyTolerance)
	assert.InDelta(t, 2.00, order.TaxAmount, model.MoneyTolerance)
	assert.InDelta(t, 9.99, order.ShippingCost, model.MoneyTolerance)
	assert.InDelta(t, 36.99, order.TotalAmount, model.MoneyTolerance)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusAuthorized, order.Payment.PaymentStatus)
	assert.Equal(t, "ORD-2026-001", order.OrderNumber)
	assert.NoError(t, order.CheckTotals())

	assert.Equal(t, 1, env.inventory.calls)
	assert.Equal(t, []string{order.OrderID}, env.notifier.confirmations)
	assert.Equal(t, []string{order.OrderID}, env.analytics.created)
}

func TestCreateOrderFreeShippingAboveFloor(t *testing.T) {
	env := newTestEnv(t)

	in := validCreate()
	in.Items = []model.OrderItem{
		{ProductID: "PROD-003", ProductName: "Chair", SKU: "SKU-3", Category: model.CategoryHomeGarden, Quantity: 1, UnitPrice: 299.99, TotalPrice: 299.99},
	}

	order, err := env.svc.CreateOrder(context.Background(), in, CreateOptions{})
	require.NoError(t, err)
	assert.Zero(t, order.ShippingCost)
	assert.NoError(t, order.CheckTotals())
}

func TestCreateGetRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.CreateOrder(context.Background(), validCreate(), CreateOptions{})
	require.NoError(t, err)

	got, err := env.svc.GetOrder(context.Background(), created.OrderID)
	require.NoError(t, err)

	assert.NoError(t, got.CheckTotals())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Widget", got.Items[0].ProductName)
	assert.Equal(t, "Gadget", got.Items[1].ProductName)
	for _, item := range got.Items {
		assert.InDelta(t, float64(item.Quantity)*item.UnitPrice, item.TotalPrice, model.MoneyTolerance)
	}
}

func TestCreateOrderSequenceIsMonotonic(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.CreateOrder(context.Background(), validCreate(), CreateOptions{})
	require.NoError(t, err)
	second, err := env.svc.CreateOrder(context.Background(), validCreate(), CreateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "ORD-2026-001", first.OrderNumber)
	assert.Equal(t, "ORD-2026-002", second.OrderNumber)
	assert.NotEqual(t, first.OrderID, second.OrderID)
}

func TestCreateOrderInventoryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.inventory.err = &client.InsufficientInventoryError{Product: "Widget"}

	_, err := env.svc.CreateOrder(context.Background(), validCreate(), CreateOptions{ValidateInventory: true})
	require.Error(t, err)

	var invErr *client.InsufficientInventoryError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, "Widget", invErr.Product)

	// nothing committed, nothing notified
	n, err := env.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, env.notifier.confirmations)
	assert.Empty(t, env.analytics.created)
}

func TestCreateOrderSkipsInventoryWhenDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.inventory.err = &client.InsufficientInventoryError{Product: "Widget"}

	_, err := env.svc.CreateOrder(context.Background(), validCreate(), CreateOptions{ValidateInventory: false})
	require.NoError(t, err)
	assert.Zero(t, env.inventory.calls)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)

	in := validCreate()
	in.Items[0].TotalPrice = 99 // breaks quantity * unit_price

	_, err := env.svc.CreateOrder(context.Background(), in, CreateOptions{})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestUpdateOrderPartialPatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
	require.NoError(t, err)

	confirmed := model.OrderStatusConfirmed
	updated, err := env.svc.UpdateOrder(ctx, created.OrderID, &model.OrderUpdate{
		Status:   &confirmed,
		Metadata: map[string]any{"priority": "high"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, "high", updated.Metadata["priority"])
	// untouched fields survive, metadata merged not replaced
	assert.Equal(t, "api", updated.Metadata["created_by"])
	assert.Equal(t, created.Notes, updated.Notes)
	assert.True(t, updated.UpdatedAt.Equal(fixedNow))

	assert.Equal(t, []statusChange{{created.OrderID, model.OrderStatusConfirmed}}, env.notifier.statusChanges)

	// second metadata patch keeps the first key
	_, err = env.svc.UpdateOrder(ctx, created.OrderID, &model.OrderUpdate{Metadata: map[string]any{"gift": true}})
	require.NoError(t, err)
	got, err := env.svc.GetOrder(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "high", got.Metadata["priority"])
	assert.Equal(t, true, got.Metadata["gift"])
}

func TestUpdateOrderNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.UpdateOrder(context.Background(), "missing", &model.OrderUpdate{})
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestCancelOrderRefundsCapturedPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
	require.NoError(t, err)

	// simulate a captured payment before cancellation
	stored, err := env.repo.Get(ctx, created.OrderID)
	require.NoError(t, err)
	stored.Payment.PaymentStatus = model.PaymentStatusCaptured
	require.NoError(t, env.repo.Update(ctx, stored))

	require.NoError(t, env.svc.CancelOrder(ctx, created.OrderID, "customer request", true))

	got, err := env.svc.GetOrder(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.Equal(t, "Cancelled: customer request", got.Notes)
	assert.Equal(t, model.PaymentStatusRefunded, got.Payment.PaymentStatus)
	assert.Equal(t, true, got.Metadata["refund_processed"])
}

func TestCancelOrderIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
	require.NoError(t, err)

	stored, err := env.repo.Get(ctx, created.OrderID)
	require.NoError(t, err)
	stored.Payment.PaymentStatus = model.PaymentStatusCaptured
	require.NoError(t, env.repo.Update(ctx, stored))

	require.NoError(t, env.svc.CancelOrder(ctx, created.OrderID, "first", true))
	require.NoError(t, env.svc.CancelOrder(ctx, created.OrderID, "second", true))

	got, err := env.svc.GetOrder(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	// notes are overwritten each time, refund is not re-triggered
	assert.Equal(t, "Cancelled: second", got.Notes)
	assert.Equal(t, model.PaymentStatusRefunded, got.Payment.PaymentStatus)
}

func TestCancelOrderWithoutRefundKeepsAuthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, env.svc.CancelOrder(ctx, created.OrderID, "late delivery", false))

	got, err := env.svc.GetOrder(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusAuthorized, got.Payment.PaymentStatus)
	_, flagged := got.Metadata["refund_processed"]
	assert.False(t, flagged)
}

func TestCancelOrderNotFound(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.CancelOrder(context.Background(), "missing", "whatever", true)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestGetOrderWithHistoryAnnotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
	require.NoError(t, err)
	second, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
	require.NoError(t, err)

	got, err := env.svc.GetOrderWithHistory(ctx, first.OrderID)
	require.NoError(t, err)

	history, ok := got.Metadata["customer_order_history"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{first.OrderID, second.OrderID}, history)

	// the annotation persists in the store
	stored, err := env.svc.GetOrder(ctx, first.OrderID)
	require.NoError(t, err)
	assert.Contains(t, stored.Metadata, "customer_order_history")

	// a plain lookup of the sibling stays clean
	sibling, err := env.svc.GetOrder(ctx, second.OrderID)
	require.NoError(t, err)
	assert.NotContains(t, sibling.Metadata, "customer_order_history")
}

func TestListOrdersPipeline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
		require.NoError(t, err)
	}

	res, err := env.svc.ListOrders(ctx, model.OrderFilter{}, "", "created_at", "desc", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Items, 2)
	assert.True(t, res.HasNext)
	assert.False(t, res.HasPrev)
}

func TestSeedSampleData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.SeedSampleData(ctx))

	n, err := env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	orders, err := env.repo.List(ctx)
	require.NoError(t, err)
	for _, o := range orders {
		assert.NoError(t, o.CheckTotals(), "order %s", o.OrderNumber)
		assert.NotEmpty(t, o.Items)
		assert.Equal(t, true, o.Metadata["sample"])
	}

	// idempotent: a second seed is a no-op
	require.NoError(t, env.svc.SeedSampleData(ctx))
	n, err = env.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	// numbering continues after the seeded block
	created, err := env.svc.CreateOrder(ctx, validCreate(), CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-009", created.OrderNumber)
}
