package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Publisher delivers a stage's output payload to a topic. Implementations
// must be safe for concurrent use; the runner publishes from many runs at
// once.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Envelope is a published message as observed by subscribers.
type Envelope struct {
	Topic   string
	Payload any
}

// InMemoryPublisher fans published envelopes out to subscriber channels. It
// backs local runs and tests where no broker is available.
type InMemoryPublisher struct {
	mu          sync.Mutex
	subscribers []chan Envelope
	published   []Envelope
}

// NewInMemoryPublisher creates an empty in-process publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

// Publish records the envelope and delivers it to every subscriber.
// Subscriber channels are buffered at subscribe time; a full channel drops
// the delivery for that subscriber rather than blocking the publishing run.
func (p *InMemoryPublisher) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Round-trip through JSON so subscribers see what a broker consumer
	// would, not shared pointers into the publishing run's state.
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("failed to decode payload for topic %s: %w", topic, err)
	}

	env := Envelope{Topic: topic, Payload: decoded}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.published = append(p.published, env)

	for _, ch := range p.subscribers {
		select {
		case ch <- env:
		default:
		}
	}

	return nil
}

// Subscribe returns a channel receiving all future envelopes.
func (p *InMemoryPublisher) Subscribe() <-chan Envelope {
	ch := make(chan Envelope, 64)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers = append(p.subscribers, ch)

	return ch
}

// Published returns a snapshot of everything published so far.
func (p *InMemoryPublisher) Published() []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Envelope, len(p.published))
	copy(out, p.published)

	return out
}
