// Package publisher drains the journal outbox onto the checkout-events Kafka
// topic and recovers attempts that got wedged mid-payment.
package publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/journal"
)

// stuckCutoff is how long an attempt may sit in PAYMENT_PENDING before the
// recovery tick declares the order unpaid. Longer than the widget session TTL
// so recovery never races a live widget.
const stuckCutoff = 15 * time.Minute

// MessageWriter is the slice of kafka.Writer the poller needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	timeout      time.Duration
	eventTick    time.Duration
	recoveryTick time.Duration
	store        journal.Store
	writer       MessageWriter
}

func NewOutboxPoller(store journal.Store, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "checkout-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		timeout:      5 * time.Second,
		eventTick:    time.Second,
		recoveryTick: time.Minute,
		store:        store,
		writer:       w,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckAttempts(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.store.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		errPublish := p.publish(ctx, event)
		if errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		errMark := p.store.MarkEventProcessed(ctx, event.ID)
		if errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event journal.OutboxEvent) error {
	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(event.AttemptID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
}

// recoverStuckAttempts terminalizes attempts stranded in a non-terminal
// status, typically by a crash. Attempts that never produced an order go to
// FAILED; attempts with an order go to UNPAID. MarkTerminal appends the
// outbox event, so the next event tick publishes it.
func (p *OutboxPoller) recoverStuckAttempts(ctx context.Context) {
	attempts, err := p.store.GetStuckAttempts(ctx, time.Now().Add(-stuckCutoff))
	if err != nil {
		log.Printf("failed to get stuck attempts: %v", err)
		return
	}

	for _, attempt := range attempts {
		log.Printf("recovering stuck checkout attempt: %v", attempt.ID)

		payload := map[string]interface{}{
			"attempt_id": attempt.ID,
			"user_id":    attempt.UserID,
			"reason":     "stale",
		}
		if attempt.OrderID != nil {
			payload["order_id"] = *attempt.OrderID
		}
		if attempt.GatewayOrderID != nil {
			payload["gateway_order_id"] = *attempt.GatewayOrderID
		}

		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			log.Printf("failed to marshal recovery payload for attempt %v: %v", attempt.ID, err)
			continue
		}

		terminal := domain.AttemptStatusUnpaid
		if attempt.Status == domain.AttemptStatusInitiated {
			terminal = domain.AttemptStatusFailed
		}
		if err := p.store.MarkTerminal(ctx, attempt.ID, terminal, "stale", payloadJSON); err != nil {
			log.Printf("failed to mark stuck attempt %v %v: %v", attempt.ID, terminal, err)
		}
	}
}
