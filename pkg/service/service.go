package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
	"github.com/cloud-omnichannel/orderservice/pkg/query"
	"github.com/cloud-omnichannel/orderservice/pkg/repository"
)

// Collaborator contracts, implemented by pkg/client and pkg/worker. Fakes
// replace them in tests.
type InventoryChecker interface {
	CheckAvailability(ctx context.Context, items []model.OrderItem) error
}

type Notifier interface {
	SendConfirmation(orderID string)
	NotifyStatusChange(orderID string, status model.OrderStatus)
}

type AnalyticsRecorder interface {
	RecordOrderCreated(orderID string)
}

const (
	taxRate           = 0.08
	freeShippingFloor = 50.0
	flatShippingCost  = 9.99
)

type OrderService struct {
	repo      repository.OrderRepo
	inventory InventoryChecker
	notifier  Notifier
	analytics AnalyticsRecorder
	logger    *logrus.Logger

	// Monotonic order-number sequence, independent of live record count so
	// numbers stay unique under concurrent creates.
	orderSeq atomic.Int64

	now func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewOrderService(
	repo repository.OrderRepo,
	inventory InventoryChecker,
	notifier Notifier,
	analytics AnalyticsRecorder,
	log *logrus.Logger,
) *OrderService {
	return &OrderService{
		repo:      repo,
		inventory: inventory,
		notifier:  notifier,
		analytics: analytics,
		logger:    log,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// InitSequence seeds the order-number counter from the current store size.
// Call once at startup, after any seeding.
func (s *OrderService) InitSequence(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to count orders")
	}
	s.orderSeq.Store(int64(n))
	return nil
}

// ListOrders runs the filter -> search -> sort -> paginate pipeline over a
// store snapshot. Pure read.
func (s *OrderService) ListOrders(
	ctx context.Context,
	f model.OrderFilter,
	search, sortBy, sortOrder string,
	page, size int,
) (*model.PaginatedOrders, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}
	result := query.Apply(orders, f, search, sortBy, sortOrder, page, size)
	return &result, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.repo.Get(ctx, orderID)
}

// GetOrderWithHistory fetches an order and annotates its metadata with the
// ids of every order belonging to the same customer. The annotation is
// written back to the store, so this read has a documented side effect;
// callers who want a plain lookup use GetOrder.
func (s *OrderService) GetOrderWithHistory(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.repo.ListByCustomer(ctx, order.Customer.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load customer history")
	}
	history := make([]string, 0, len(siblings))
	for _, o := range siblings {
		history = append(history, o.OrderID)
	}

	if order.Metadata == nil {
		order.Metadata = make(map[string]any)
	}
	order.Metadata["customer_order_history"] = history
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to persist history annotation")
	}
	return order, nil
}

type CreateOptions struct {
	ValidateInventory bool
	SendConfirmation  bool
}

// CreateOrder validates the payload, optionally checks inventory, derives
// the money fields and commits the order. Confirmation and analytics run
// fire-and-forget after the commit.
func (s *OrderService) CreateOrder(ctx context.Context, in *model.OrderCreate, opts CreateOptions) (*model.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if opts.ValidateInventory {
		if err := s.inventory.CheckAvailability(ctx, in.Items); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()

	subtotal := 0.0
	for i := range in.Items {
		subtotal += in.Items[i].TotalPrice
	}
	taxAmount := model.Round2(subtotal * taxRate)
	shippingCost := 0.0
	if subtotal < freeShippingFloor {
		shippingCost = flatShippingCost
	}
	totalAmount := subtotal + taxAmount + shippingCost

	processedAt := now
	order := &model.Order{
		OrderID:         uuid.New().String(),
		OrderNumber:     s.nextOrderNumber(now),
		Status:          model.OrderStatusPending,
		Channel:         in.Channel,
		Customer:        in.Customer,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		Items:           in.Items,
		Subtotal:        subtotal,
		TaxAmount:       taxAmount,
		ShippingCost:    shippingCost,
		DiscountAmount:  0,
		TotalAmount:     totalAmount,
		Payment: model.PaymentInfo{
			PaymentMethod: in.PaymentMethod,
			PaymentStatus: model.PaymentStatusAuthorized,
			TransactionID: fmt.Sprintf("TXN-%06d", s.randIntn(100000, 999999)),
			Amount:        totalAmount,
			Currency:      "EUR",
			ProcessedAt:   &processedAt,
		},
		CreatedAt: now,
		UpdatedAt: now,
		Notes:     in.Notes,
		Metadata:  map[string]any{"created_by": "api"},
	}

	if err := s.repo.Insert(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to insert order")
	}
	s.logger.Infof("[OrderService] Created order %s (%s)", order.OrderNumber, order.OrderID)

	s.analytics.RecordOrderCreated(order.OrderID)
	if opts.SendConfirmation {
		s.notifier.SendConfirmation(order.OrderID)
	}

	return order, nil
}

// UpdateOrder applies the present fields of the patch and refreshes
// updated_at. Metadata is merged key by key.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, patch *model.OrderUpdate) (*model.Order, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		order.Status = *patch.Status
	}
	if patch.Notes != nil {
		order.Notes = *patch.Notes
	}
	if len(patch.Metadata) > 0 && order.Metadata == nil {
		order.Metadata = make(map[string]any)
	}
	for k, v := range patch.Metadata {
		order.Metadata[k] = v
	}
	order.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Infof("[OrderService] Updated order %s", orderID)

	if patch.Status != nil {
		s.notifier.NotifyStatusChange(orderID, *patch.Status)
	}
	return order, nil
}

// CancelOrder marks the order cancelled and overwrites the notes with the
// reason. Re-cancelling keeps the order cancelled; the refund flip happens
// only while the payment is still captured.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string, refund bool) error {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}

	order.Status = model.OrderStatusCancelled
	order.Notes = fmt.Sprintf("Cancelled: %s", reason)
	order.UpdatedAt = s.now().UTC()

	if refund && order.Payment.PaymentStatus == model.PaymentStatusCaptured {
		order.Payment.PaymentStatus = model.PaymentStatusRefunded
		if order.Metadata == nil {
			order.Metadata = make(map[string]any)
		}
		order.Metadata["refund_processed"] = true
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return err
	}
	s.logger.Infof("[OrderService] Cancelled order %s", orderID)

	s.notifier.NotifyStatusChange(orderID, model.OrderStatusCancelled)
	return nil
}

func (s *OrderService) nextOrderNumber(now time.Time) string {
	seq := s.orderSeq.Add(1)
	return fmt.Sprintf("ORD-%d-%03d", now.Year(), seq)
}

func (s *OrderService) randIntn(min, max int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return min + s.rng.Intn(max-min+1)
}

func (s *OrderService) randFloat(min, max float64) float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return min + s.rng.Float64()*(max-min)
}
