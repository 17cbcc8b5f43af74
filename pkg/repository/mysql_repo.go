package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

// mysqlRepo is the persistent backend behind the same OrderRepo interface.
// List returns rows in created_at order, the closest durable equivalent of
// the memory backend's insertion order.
type mysqlRepo struct {
	db *gorm.DB
}

func NewMySQLRepo(db *gorm.DB) OrderRepo {
	return &mysqlRepo{db: db}
}

func (r *mysqlRepo) Insert(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *mysqlRepo) Get(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mysqlRepo) List(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *mysqlRepo) ListByCustomer(ctx context.Context, customerID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *mysqlRepo) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{FullSaveAssociations: true}).
			Where("order_id = ?", order.OrderID).
			Save(order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

func (r *mysqlRepo) Count(ctx context.Context) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&n).Error
	return int(n), err
}
