package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

// Summary scans the store once and aggregates counts, revenue, per-status
// and per-channel buckets (non-zero only) and the top five products by
// quantity sold. Date bounds are inclusive on both ends.
func (s *OrderService) Summary(ctx context.Context, dateFrom, dateTo *time.Time) (*model.OrderSummary, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	matched := make([]*model.Order, 0, len(orders))
	for _, o := range orders {
		if dateFrom != nil && o.CreatedAt.Before(*dateFrom) {
			continue
		}
		if dateTo != nil && o.CreatedAt.After(*dateTo) {
			continue
		}
		matched = append(matched, o)
	}

	totalRevenue := 0.0
	byStatus := make(map[model.OrderStatus]int)
	byChannel := make(map[model.SalesChannel]int)
	for _, o := range matched {
		totalRevenue += o.TotalAmount
		byStatus[o.Status]++
		byChannel[o.Channel]++
	}

	avg := 0.0
	if len(matched) > 0 {
		avg = totalRevenue / float64(len(matched))
	}

	return &model.OrderSummary{
		TotalOrders:       len(matched),
		TotalRevenue:      model.Round2(totalRevenue),
		OrdersByStatus:    byStatus,
		OrdersByChannel:   byChannel,
		AverageOrderValue: model.Round2(avg),
		TopProducts:       topProducts(matched, 5),
	}, nil
}

// topProducts ranks products by total quantity sold. Ties keep first-seen
// order, so the ranking is deterministic for a given snapshot.
func topProducts(orders []*model.Order, limit int) []model.TopProduct {
	counts := make(map[string]int)
	var names []string
	for _, o := range orders {
		for i := range o.Items {
			name := o.Items[i].ProductName
			if _, seen := counts[name]; !seen {
				names = append(names, name)
			}
			counts[name] += o.Items[i].Quantity
		}
	}

	// Stable selection sort over the first-seen list; n is tiny here.
	top := make([]model.TopProduct, 0, limit)
	used := make(map[string]bool, len(names))
	for len(top) < limit && len(top) < len(names) {
		best := ""
		for _, name := range names {
			if used[name] {
				continue
			}
			if best == "" || counts[name] > counts[best] {
				best = name
			}
		}
		used[best] = true
		top = append(top, model.TopProduct{ProductName: best, TotalSold: counts[best]})
	}
	return top
}

var trendWindows = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

// TrendPeriodValid reports whether the period is one of 7d/30d/90d/1y.
func TrendPeriodValid(period string) bool {
	_, ok := trendWindows[period]
	return ok
}

// Trends aggregates real totals for the lookback window and decorates them
// with synthetic growth/conversion figures and data points. The synthetic
// parts are intentionally random demo output drawn from the service's
// injected source, not analytics.
func (s *OrderService) Trends(ctx context.Context, period, granularity string) (*model.TrendReport, error) {
	days, ok := trendWindows[period]
	if !ok {
		days = 365
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	totalOrders := 0
	totalRevenue := 0.0
	for _, o := range orders {
		if o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		totalOrders++
		totalRevenue += o.TotalAmount
	}

	numPoints := days
	if numPoints > 20 {
		numPoints = 20
	}
	step := days / 20
	if step < 1 {
		step = 1
	}

	points := make([]model.TrendPoint, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		points = append(points, model.TrendPoint{
			Date:    start.AddDate(0, 0, i*step),
			Orders:  s.randIntn(5, 50),
			Revenue: s.randFloat(500, 5000),
		})
	}

	return &model.TrendReport{
		Period:         period,
		Granularity:    granularity,
		TotalOrders:    totalOrders,
		TotalRevenue:   model.Round2(totalRevenue),
		GrowthRate:     s.randFloat(5.0, 25.0),
		ConversionRate: s.randFloat(2.0, 8.0),
		DataPoints:     points,
	}, nil
}
