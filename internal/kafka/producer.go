package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/suportia/helpdesk/internal/model"
)

// TicketEventProducer is the interface the handlers depend on, so tests can
// swap in a recorder.
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket)
}

// Producer writes ticket lifecycle events to a Kafka topic. Best-effort: a
// broker outage is logged, never surfaced to the API caller.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns a producer. With no brokers or topic, every method is
// a no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

type ticketEvent struct {
	Event      string  `json:"event"`
	TicketID   int     `json:"ticket_id"`
	CustomerID string  `json:"customer_id"`
	AssignedTo *string `json:"assigned_to_id,omitempty"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	Priority   string  `json:"priority"`
	Channel    string  `json:"channel"`
}

// ProduceTicketEvent sends one event (ticket.created, ticket.updated,
// ticket.message.created) keyed by the ticket.
func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, t *model.Ticket) {
	if p.writer == nil {
		return
	}
	body, err := json.Marshal(ticketEvent{
		Event:      event,
		TicketID:   t.ID,
		CustomerID: t.CustomerID,
		AssignedTo: t.AssignedToID,
		Title:      t.Title,
		Status:     string(t.Status),
		Priority:   string(t.Priority),
		Channel:    t.Channel,
	})
	if err != nil {
		log.Printf("kafka: marshal ticket event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		log.Printf("kafka: write ticket event: %v", err)
	}
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
