package endpoint

import (
	"context"
	"fmt"
	"sync"
	"time"

	"two_point_controller/internal/value"
)

// SetSuffix is appended to an attribute topic to request a new value.
const SetSuffix = "/set"

// Broker is the subset of an MQTT client the topic endpoints need.
type Broker interface {
	// Subscribe registers handler for topic. Subscriptions survive reconnects.
	Subscribe(topic string, handler func(payload []byte)) error
	// Publish sends payload to topic.
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
	Close() error
}

// Topic is an attribute mirrored on an MQTT topic named <device>/<attribute>.
// The latest message is cached; writes go to <device>/<attribute>/set.
type Topic struct {
	broker     Broker
	addr       Address
	topic      string
	staleAfter time.Duration
	now        func() time.Time

	mu     sync.RWMutex
	last   []byte
	seenAt time.Time
	seen   bool
}

// NewTopic subscribes to the attribute topic. A zero staleAfter disables the age check.
func NewTopic(broker Broker, addr Address, staleAfter time.Duration) (*Topic, error) {
	t := &Topic{
		broker:     broker,
		addr:       addr,
		topic:      TopicName(addr),
		staleAfter: staleAfter,
		now:        time.Now,
	}
	if err := broker.Subscribe(t.topic, t.receive); err != nil {
		return nil, addrError("subscribe", addr, err)
	}
	return t, nil
}

// TopicName returns the MQTT topic for an attribute address.
func TopicName(a Address) string {
	return a.Device + "/" + a.Attribute
}

func (t *Topic) receive(payload []byte) {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	t.mu.Lock()
	t.last = buf
	t.seenAt = t.now()
	t.seen = true
	t.mu.Unlock()
}

// Read returns the last message payload as text.
func (t *Topic) Read(ctx context.Context) (value.Value, error) {
	if err := ctx.Err(); err != nil {
		return value.Value{}, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.seen {
		return value.Value{}, addrError("read", t.addr, ErrNoValue)
	}
	if t.staleAfter > 0 {
		if age := t.now().Sub(t.seenAt); age > t.staleAfter {
			return value.Value{}, addrError("read", t.addr, fmt.Errorf("%w: last update %s ago", ErrStale, age.Round(time.Second)))
		}
	}
	return value.String(string(t.last)), nil
}

// Write publishes the textual form of v to the set topic.
func (t *Topic) Write(ctx context.Context, v value.Value) error {
	if err := t.broker.Publish(ctx, t.topic+SetSuffix, []byte(v.Text()), false); err != nil {
		return addrError("write", t.addr, err)
	}
	return nil
}
