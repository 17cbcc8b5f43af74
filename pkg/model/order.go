package model

import (
	"time"
)

// Order status values. Stored as strings so the API and the DB share one
// vocabulary.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func (s OrderStatus) Valid() bool {
	for _, v := range AllOrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type SalesChannel string

const (
	ChannelOnline      SalesChannel = "online"
	ChannelInStore     SalesChannel = "in_store"
	ChannelMobileApp   SalesChannel = "mobile_app"
	ChannelPhone       SalesChannel = "phone"
	ChannelSocialMedia SalesChannel = "social_media"
)

var AllSalesChannels = []SalesChannel{
	ChannelOnline,
	ChannelInStore,
	ChannelMobileApp,
	ChannelPhone,
	ChannelSocialMedia,
}

func (c SalesChannel) Valid() bool {
	for _, v := range AllSalesChannels {
		if c == v {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type ProductCategory string

const (
	CategoryElectronics   ProductCategory = "electronics"
	CategoryClothing      ProductCategory = "clothing"
	CategoryBooks         ProductCategory = "books"
	CategoryHomeGarden    ProductCategory = "home_garden"
	CategorySportsOutdoor ProductCategory = "sports_outdoors"
	CategoryHealthBeauty  ProductCategory = "health_beauty"
	CategoryAutomotive    ProductCategory = "automotive"
	CategoryFoodBeverage  ProductCategory = "food_beverage"
)

type OrderItem struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID        string          `gorm:"type:varchar(64);index" json:"-"`
	ProductID      string          `gorm:"type:varchar(64)" json:"product_id"`
	ProductName    string          `gorm:"type:varchar(200)" json:"product_name"`
	SKU            string          `gorm:"type:varchar(64)" json:"sku"`
	Category       ProductCategory `gorm:"type:varchar(32)" json:"category"`
	Quantity       int             `gorm:"type:int" json:"quantity"`
	UnitPrice      float64         `json:"unit_price"`
	TotalPrice     float64         `json:"total_price"`
	DiscountAmount float64         `json:"discount_amount"`
	TaxAmount      float64         `json:"tax_amount"`
}

type CustomerInfo struct {
	CustomerID  string `gorm:"type:varchar(64);index" json:"customer_id"`
	FirstName   string `gorm:"type:varchar(50)" json:"first_name"`
	LastName    string `gorm:"type:varchar(50)" json:"last_name"`
	Email       string `gorm:"type:varchar(120)" json:"email"`
	Phone       string `gorm:"type:varchar(32)" json:"phone,omitempty"`
	LoyaltyTier string `gorm:"type:varchar(32)" json:"loyalty_tier"`
}

// FullName is the display form used by search and by the customer_name sort
// key.
func (c CustomerInfo) FullName() string {
	return c.FirstName + " " + c.LastName
}

type ShippingAddress struct {
	StreetAddress string `gorm:"type:varchar(200)" json:"street_address"`
	City          string `gorm:"type:varchar(50)" json:"city"`
	State         string `gorm:"type:varchar(50)" json:"state"`
	PostalCode    string `gorm:"type:varchar(20)" json:"postal_code"`
	Country       string `gorm:"type:varchar(50)" json:"country"`
	IsDefault     bool   `json:"is_default"`
}

type PaymentInfo struct {
	PaymentMethod string        `gorm:"type:varchar(32)" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16)" json:"payment_status"`
	TransactionID string        `gorm:"type:varchar(64)" json:"transaction_id"`
	Amount        float64       `json:"amount"`
	Currency      string        `gorm:"type:char(3)" json:"currency"`
	ProcessedAt   *time.Time    `json:"processed_at,omitempty"`
}

type Order struct {
	OrderID     string       `gorm:"primaryKey;type:varchar(64)" json:"order_id"`
	OrderNumber string       `gorm:"type:varchar(32);uniqueIndex" json:"order_number"`
	Status      OrderStatus  `gorm:"type:varchar(16);index:idx_status_created_at,priority:1" json:"status"`
	Channel     SalesChannel `gorm:"type:varchar(16);index" json:"channel"`

	Customer        CustomerInfo     `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	ShippingAddress ShippingAddress  `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  *ShippingAddress `gorm:"serializer:json" json:"billing_address,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:OrderID" json:"items"`

	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingCost   float64 `json:"shipping_cost"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`

	Payment PaymentInfo `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`

	CreatedAt   time.Time  `gorm:"index:idx_status_created_at,priority:2" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	Notes    string         `gorm:"type:varchar(500)" json:"notes,omitempty"`
	Metadata map[string]any `gorm:"serializer:json" json:"metadata"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Clone returns a deep copy. The repository hands out clones so query
// pipelines never observe in-place mutation of stored records.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = make([]OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	if o.BillingAddress != nil {
		addr := *o.BillingAddress
		cp.BillingAddress = &addr
	}
	if o.Payment.ProcessedAt != nil {
		ts := *o.Payment.ProcessedAt
		cp.Payment.ProcessedAt = &ts
	}
	if o.ShippedAt != nil {
		ts := *o.ShippedAt
		cp.ShippedAt = &ts
	}
	if o.DeliveredAt != nil {
		ts := *o.DeliveredAt
		cp.DeliveredAt = &ts
	}
	cp.Metadata = make(map[string]any, len(o.Metadata))
	for k, v := range o.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}
