package events

import (
	"context"
	"log"
)

// Producer writes one message to a single topic.
type Producer interface {
	Publish(ctx context.Context, key string, event any) error
}

// Publisher emits domain events to named topics, at-least-once. Emission
// happens strictly after the caller's primary-store write; a publish failure
// is logged and never surfaced, so a failed emit can never abort or roll
// back an already-committed mutation.
type Publisher struct {
	producers map[string]Producer
}

func NewPublisher(producers map[string]Producer) *Publisher {
	return &Publisher{producers: producers}
}

// Emit publishes payload to topic under key. Failures are logged, not
// returned.
func (p *Publisher) Emit(ctx context.Context, topic, key string, payload any) {
	producer, ok := p.producers[topic]
	if !ok {
		log.Printf("[EventPublisher] No producer configured for topic %s (key=%s)", topic, key)
		return
	}
	if err := producer.Publish(ctx, key, payload); err != nil {
		log.Printf("[EventPublisher] Error publishing %s to %s: %v", key, topic, err)
	}
}
