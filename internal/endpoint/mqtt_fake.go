package endpoint

import (
	"context"
	"sync"
)

// PublishedMessage is a message recorded by FakeBroker.
type PublishedMessage struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakeBroker is an in-memory Broker for tests and offline runs.
type FakeBroker struct {
	mu        sync.Mutex
	handlers  map[string]func([]byte)
	Published []PublishedMessage

	// PublishError, if set, is returned by Publish.
	PublishError error
	// SubscribeError, if set, is returned by Subscribe.
	SubscribeError error
	Closed         bool
}

func NewFakeBroker() *FakeBroker {
	return &FakeBroker{handlers: make(map[string]func([]byte))}
}

func (f *FakeBroker) Subscribe(topic string, handler func([]byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.handlers[topic] = handler
	return nil
}

func (f *FakeBroker) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Published = append(f.Published, PublishedMessage{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

// Deliver simulates an incoming message on topic. It reports whether anyone was subscribed.
func (f *FakeBroker) Deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(payload)
	return true
}

func (f *FakeBroker) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}
