package model

import (
	"fmt"
	"math"
	"regexp"
)

// Tolerance for derived money fields; order math runs on float64 so exact
// equality is not meaningful.
const MoneyTolerance = 0.01

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// ValidationError marks a request that is well-formed JSON but violates a
// domain rule. The HTTP layer maps it to 400, never 500.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (i *OrderItem) Validate() error {
	if i.ProductName == "" || len(i.ProductName) > 200 {
		return invalidf("product_name must be 1-200 characters")
	}
	if i.Quantity <= 0 {
		return invalidf("quantity must be positive for %s", i.ProductName)
	}
	if i.UnitPrice <= 0 {
		return invalidf("unit_price must be positive for %s", i.ProductName)
	}
	if math.Abs(i.TotalPrice-float64(i.Quantity)*i.UnitPrice) > MoneyTolerance {
		return invalidf("total_price must equal quantity * unit_price for %s", i.ProductName)
	}
	if i.DiscountAmount < 0 || i.TaxAmount < 0 {
		return invalidf("discount_amount and tax_amount must be non-negative for %s", i.ProductName)
	}
	return nil
}

func (c *CustomerInfo) Validate() error {
	if c.CustomerID == "" {
		return invalidf("customer_id is required")
	}
	if c.FirstName == "" || len(c.FirstName) > 50 {
		return invalidf("first_name must be 1-50 characters")
	}
	if c.LastName == "" || len(c.LastName) > 50 {
		return invalidf("last_name must be 1-50 characters")
	}
	if !emailPattern.MatchString(c.Email) {
		return invalidf("email %q is not valid", c.Email)
	}
	return nil
}

func (a *ShippingAddress) Validate() error {
	if len(a.StreetAddress) < 5 {
		return invalidf("street_address is too short")
	}
	if len(a.City) < 2 || len(a.State) < 2 || len(a.Country) < 2 {
		return invalidf("city, state and country are required")
	}
	if len(a.PostalCode) < 3 {
		return invalidf("postal_code is too short")
	}
	return nil
}

func (c *OrderCreate) Validate() error {
	if !c.Channel.Valid() {
		return invalidf("unknown sales channel %q", c.Channel)
	}
	if len(c.Items) == 0 {
		return invalidf("order must contain at least one item")
	}
	for idx := range c.Items {
		if err := c.Items[idx].Validate(); err != nil {
			return err
		}
	}
	if err := c.Customer.Validate(); err != nil {
		return err
	}
	if err := c.ShippingAddress.Validate(); err != nil {
		return err
	}
	if c.BillingAddress != nil {
		if err := c.BillingAddress.Validate(); err != nil {
			return err
		}
	}
	if c.PaymentMethod == "" {
		return invalidf("payment_method is required")
	}
	if len(c.Notes) > 500 {
		return invalidf("notes must be at most 500 characters")
	}
	return nil
}

func (u *OrderUpdate) Validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return invalidf("unknown order status %q", *u.Status)
	}
	if u.Notes != nil && len(*u.Notes) > 500 {
		return invalidf("notes must be at most 500 characters")
	}
	return nil
}

// CheckTotals verifies the order-level money invariant.
func (o *Order) CheckTotals() error {
	expected := o.Subtotal + o.TaxAmount + o.ShippingCost - o.DiscountAmount
	if math.Abs(o.TotalAmount-expected) > MoneyTolerance {
		return invalidf("total_amount %.2f does not match subtotal+tax+shipping-discount %.2f", o.TotalAmount, expected)
	}
	return nil
}
