package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultReceiptTopic = "payment-receipts"
	eventTypeHeader     = "event_type"
	paymentSucceeded    = "PaymentSucceeded"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReceiptNotifier enqueues receipt jobs for paid orders. Delivery is best
// effort; the consumer owns retries.
type ReceiptNotifier struct {
	writer messageWriter
	now    func() time.Time
}

func NewReceiptNotifier(topic string, brokers ...string) *ReceiptNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &ReceiptNotifier{writer: w, now: time.Now}
}

type receiptJob struct {
	OrderID    string    `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (n *ReceiptNotifier) NotifyPaymentSucceeded(ctx context.Context, orderID uuid.UUID) error {
	payload, err := json.Marshal(receiptJob{OrderID: orderID.String(), OccurredAt: n.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal receipt job: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(orderID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(paymentSucceeded)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish receipt job for order %s: %w", orderID, err)
	}
	return nil
}

func (n *ReceiptNotifier) Close() error {
	return n.writer.Close()
}
