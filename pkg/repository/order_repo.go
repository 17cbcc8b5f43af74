package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

// ErrOrderNotFound is the lookup-miss signal for Get/Update against an
// unknown order id. Callers map it to a not-found response, never a 500.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo is the single source of truth for orders. The query pipeline
// reads snapshots via List; all mutation goes through Insert/Update so a
// backend can serialize writes however it needs to.
type OrderRepo interface {
	Insert(ctx context.Context, order *model.Order) error
	Get(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context) ([]*model.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	Count(ctx context.Context) (int, error)
}
