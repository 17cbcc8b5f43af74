// Package worker holds the fire-and-forget collaborators: customer
// notifications and the analytics sink. Nothing here may block or fail a
// request; delivery problems are logged and dropped.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cloud-omnichannel/orderservice/pkg/model"
)

type notificationKind int

const (
	kindConfirmation notificationKind = iota
	kindStatusChange
)

type notification struct {
	kind    notificationKind
	orderID string
	status  model.OrderStatus
}

// Notifier delivers order confirmations and status-change notices off the
// request path. Sends are non-blocking; a full buffer drops the notice.
type Notifier struct {
	buffer chan notification
	delay  time.Duration
	log    *logrus.Entry
}

func NewNotifier(log *logrus.Logger) *Notifier {
	return &Notifier{
		buffer: make(chan notification, 1000),
		delay:  500 * time.Millisecond,
		log:    log.WithField("worker", "Notifier"),
	}
}

func (n *Notifier) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.run(ctx)
	}()
}

func (n *Notifier) run(ctx context.Context) {
	n.log.Info("Notifier started")
	for {
		select {
		case msg := <-n.buffer:
			n.deliver(ctx, msg)
		case <-ctx.Done():
			n.log.Info("Notifier stopping, draining pending notifications...")
			close(n.buffer)
			for msg := range n.buffer {
				n.deliver(context.Background(), msg)
			}
			return
		}
	}
}

// deliver simulates the downstream email/push call.
func (n *Notifier) deliver(ctx context.Context, msg notification) {
	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
	}

	switch msg.kind {
	case kindConfirmation:
		n.log.Infof("Sent confirmation email for order %s", msg.orderID)
	case kindStatusChange:
		n.log.Infof("Notified customer of status update for order %s: %s", msg.orderID, msg.status)
	}
}

func (n *Notifier) SendConfirmation(orderID string) {
	n.push(notification{kind: kindConfirmation, orderID: orderID})
}

func (n *Notifier) NotifyStatusChange(orderID string, status model.OrderStatus) {
	n.push(notification{kind: kindStatusChange, orderID: orderID, status: status})
}

func (n *Notifier) push(msg notification) {
	select {
	case n.buffer <- msg:
	default:
		n.log.Warn("Notification buffer full, dropping notification")
	}
}
