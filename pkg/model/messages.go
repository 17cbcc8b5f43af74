package model

import "time"

// OrderCreate is the inbound payload for new orders. Money fields on the
// resulting Order are derived server-side.
type OrderCreate struct {
	Channel         SalesChannel     `json:"channel"`
	Customer        CustomerInfo     `json:"customer"`
	ShippingAddress ShippingAddress  `json:"shipping_address"`
	BillingAddress  *ShippingAddress `json:"billing_address,omitempty"`
	Items           []OrderItem      `json:"items"`
	PaymentMethod   string           `json:"payment_method"`
	Notes           string           `json:"notes,omitempty"`
}

// OrderUpdate is a partial patch. Nil means "leave unchanged"; Metadata is
// merged key by key, never replaced wholesale.
type OrderUpdate struct {
	Status   *OrderStatus   `json:"status,omitempty"`
	Notes    *string        `json:"notes,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// OrderFilter carries the list-endpoint predicates. Pointer fields make
// presence explicit: a nil bound is skipped entirely, a zero value is a real
// constraint.
type OrderFilter struct {
	Status     []OrderStatus
	Channel    []SalesChannel
	CustomerID string
	DateFrom   *time.Time
	DateTo     *time.Time
	MinAmount  *float64
	MaxAmount  *float64
}

type PaginatedOrders struct {
	Items   []*Order `json:"items"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Size    int      `json:"size"`
	Pages   int      `json:"pages"`
	HasNext bool     `json:"has_next"`
	HasPrev bool     `json:"has_prev"`
}

type TopProduct struct {
	ProductName string `json:"product_name"`
	TotalSold   int    `json:"total_sold"`
}

type OrderSummary struct {
	TotalOrders       int                  `json:"total_orders"`
	TotalRevenue      float64              `json:"total_revenue"`
	OrdersByStatus    map[OrderStatus]int  `json:"orders_by_status"`
	OrdersByChannel   map[SalesChannel]int `json:"orders_by_channel"`
	AverageOrderValue float64              `json:"average_order_value"`
	TopProducts       []TopProduct         `json:"top_products"`
}

type TrendPoint struct {
	Date    time.Time `json:"date"`
	Orders  int       `json:"orders"`
	Revenue float64   `json:"revenue"`
}

// TrendReport totals are real; growth/conversion rates and per-point figures
// are synthetic demo data drawn from the service's random source.
type TrendReport struct {
	Period         string       `json:"period"`
	Granularity    string       `json:"granularity"`
	TotalOrders    int          `json:"total_orders"`
	TotalRevenue   float64      `json:"total_revenue"`
	GrowthRate     float64      `json:"growth_rate"`
	ConversionRate float64      `json:"conversion_rate"`
	DataPoints     []TrendPoint `json:"data_points"`
}
