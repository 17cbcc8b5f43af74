package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

type sampleProduct struct {
	name     string
	price    float64
	category model.ProductCategory
}

var sampleProducts = []sampleProduct{
	{"AWS Cloud Architecture Book", 45.99, model.CategoryBooks},
	{"Wireless Bluetooth Headphones", 129.99, model.CategoryElectronics},
	{"Professional Laptop Stand", 79.99, model.CategoryElectronics},
	{"Cotton Polo Shirt", 29.99, model.CategoryClothing},
	{"Ergonomic Office Chair", 299.99, model.CategoryHomeGarden},
	{"Vitamin D Supplements", 19.99, model.CategoryHealthBeauty},
}

var sampleCustomers = []model.CustomerInfo{
	{FirstName: "Alice", LastName: "Johnson", Email: "alice.johnson@email.com"},
	{FirstName: "Bob", LastName: "Smith", Email: "bob.smith@email.com"},
	{FirstName: "Carol", LastName: "Williams", Email: "carol.williams@email.com"},
	{FirstName: "David", LastName: "Brown", Email: "david.brown@email.com"},
	{FirstName: "Emma", LastName: "Davis", Email: "emma.davis@email.com"},
}

var sampleAddresses = []model.ShippingAddress{
	{StreetAddress: "123 Tech Street", City: "Berlin", State: "Berlin", PostalCode: "10115", Country: "Germany", IsDefault: true},
	{StreetAddress: "456 Innovation Ave", City: "Munich", State: "Bavaria", PostalCode: "80331", Country: "Germany", IsDefault: true},
	{StreetAddress: "789 Digital Boulevard", City: "Hamburg", State: "Hamburg", PostalCode: "20095", Country: "Germany", IsDefault: true},
	{StreetAddress: "321 Cloud Lane", City: "Frankfurt", State: "Hesse", PostalCode: "60311", Country: "Germany", IsDefault: true},
}

var sampleShapes = []struct {
	channel model.SalesChannel
	status  model.OrderStatus
}{
	{model.ChannelOnline, model.OrderStatusDelivered},
	{model.ChannelInStore, model.OrderStatusProcessing},
	{model.ChannelMobileApp, model.OrderStatusShipped},
	{model.ChannelOnline, model.OrderStatusConfirmed},
	{model.ChannelPhone, model.OrderStatusPending},
	{model.ChannelSocialMedia, model.OrderStatusDelivered},
	{model.ChannelOnline, model.OrderStatusCancelled},
	{model.ChannelMobileApp, model.OrderStatusDelivered},
}

// SeedSampleData populates the store with eight demo orders spread over the
// last 90 days, matching channels and statuses the demo UI expects. Skipped
// when the store already has data.
func (s *OrderService) SeedSampleData(ctx context.Context) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to count orders")
	}
	if n > 0 {
		s.logger.Infof("[OrderService] Store already holds %d orders, skipping sample data", n)
		return nil
	}

	for _, shape := range sampleShapes {
		order := s.buildSampleOrder(shape.channel, shape.status)
		if err := s.repo.Insert(ctx, order); err != nil {
			return errors.Wrapf(err, "failed to seed sample order %s", order.OrderNumber)
		}
	}
	if err := s.InitSequence(ctx); err != nil {
		return err
	}
	s.logger.Infof("[OrderService] Initialized %d sample orders", len(sampleShapes))
	return nil
}

func (s *OrderService) buildSampleOrder(channel model.SalesChannel, status model.OrderStatus) *model.Order {
	createdAt := s.now().UTC().AddDate(0, 0, -s.randIntn(1, 90))

	numItems := s.randIntn(1, 3)
	picked := s.pickProducts(numItems)

	subtotal := 0.0
	items := make([]model.OrderItem, 0, numItems)
	for i, p := range picked {
		quantity := s.randIntn(1, 3)
		totalPrice := float64(quantity) * p.price
		subtotal += totalPrice
		items = append(items, model.OrderItem{
			ProductID:   fmt.Sprintf("PROD-%03d", i+1),
			ProductName: p.name,
			SKU:         fmt.Sprintf("SKU-%05d", s.randIntn(10000, 99999)),
			Category:    p.category,
			Quantity:    quantity,
			UnitPrice:   p.price,
			TotalPrice:  totalPrice,
			TaxAmount:   model.Round2(totalPrice * taxRate),
		})
	}

	taxAmount := model.Round2(subtotal * taxRate)
	shippingCost := 0.0
	if subtotal < freeShippingFloor {
		shippingCost = flatShippingCost
	}
	totalAmount := subtotal + taxAmount + shippingCost

	customer := sampleCustomers[s.randIntn(0, len(sampleCustomers)-1)]
	customer.CustomerID = fmt.Sprintf("CUST-%04d", s.randIntn(1000, 9999))
	customer.Phone = fmt.Sprintf("+49-%d-%d", s.randIntn(100, 999), s.randIntn(1000000, 9999999))
	customer.LoyaltyTier = []string{"standard", "silver", "gold", "platinum"}[s.randIntn(0, 3)]

	paymentStatus := model.PaymentStatusAuthorized
	if status == model.OrderStatusDelivered || status == model.OrderStatusShipped {
		paymentStatus = model.PaymentStatusCaptured
	}
	processedAt := createdAt.Add(time.Duration(s.randIntn(1, 30)) * time.Minute)

	return &model.Order{
		OrderID:         uuid.New().String(),
		OrderNumber:     s.nextOrderNumber(createdAt),
		Status:          status,
		Channel:         channel,
		Customer:        customer,
		ShippingAddress: sampleAddresses[s.randIntn(0, len(sampleAddresses)-1)],
		Items:           items,
		Subtotal:        subtotal,
		TaxAmount:       taxAmount,
		ShippingCost:    shippingCost,
		TotalAmount:     totalAmount,
		Payment: model.PaymentInfo{
			PaymentMethod: []string{"credit_card", "paypal", "bank_transfer", "apple_pay"}[s.randIntn(0, 3)],
			PaymentStatus: paymentStatus,
			TransactionID: fmt.Sprintf("TXN-%06d", s.randIntn(100000, 999999)),
			Amount:        totalAmount,
			Currency:      "EUR",
			ProcessedAt:   &processedAt,
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Notes:     fmt.Sprintf("Sample order created via %s", channel),
		Metadata:  map[string]any{"sample": true, "demo_order": true},
	}
}

// pickProducts draws n distinct products from the sample catalog.
func (s *OrderService) pickProducts(n int) []sampleProduct {
	idx := make([]int, len(sampleProducts))
	for i := range idx {
		idx[i] = i
	}
	for i := len(idx) - 1; i > 0; i-- {
		j := s.randIntn(0, i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := make([]sampleProduct, 0, n)
	for _, i := range idx[:n] {
		out = append(out, sampleProducts[i])
	}
	return out
}
