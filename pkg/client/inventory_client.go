package client

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

// InsufficientInventoryError names the first product that failed the
// availability check. It belongs to the validation failure class, distinct
// from not-found.
type InsufficientInventoryError struct {
	Product string
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %s", e.Product)
}

// InventoryClient is a stand-in for the real inventory service: a fixed call
// delay plus a small per-item failure rate, behind a circuit breaker so a
// real remote implementation can drop in without changing callers.
type InventoryClient struct {
	cb       *gobreaker.CircuitBreaker
	delay    time.Duration
	failRate float64

	mu   sync.Mutex
	roll func() float64
}

func NewInventoryClient(log *logrus.Logger) *InventoryClient {
	st := gobreaker.Settings{
		Name:        "InventoryService",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// Out-of-stock is a business answer, not a service failure.
			if err == nil {
				return true
			}
			_, ok := err.(*InsufficientInventoryError)
			return ok
		},
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &InventoryClient{
		cb:       gobreaker.NewCircuitBreaker(st),
		delay:    100 * time.Millisecond,
		failRate: 0.05,
		roll:     rng.Float64,
	}
}

// CheckAvailability simulates the remote availability call. It honors ctx
// during the simulated latency and reports the first unavailable product.
func (c *InventoryClient) CheckAvailability(ctx context.Context, items []model.OrderItem) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		for i := range items {
			if c.nextRoll() < c.failRate {
				return nil, &InsufficientInventoryError{Product: items[i].ProductName}
			}
		}
		return nil, nil
	})
	return err
}

func (c *InventoryClient) nextRoll() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roll()
}
