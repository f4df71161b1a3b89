package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"two_point_controller/internal/logger"
)

const (
	mqttPublishTimeout   = 5 * time.Second
	mqttSubscribeTimeout = 5 * time.Second
	mqttRetryInterval    = 5 * time.Second
	mqttQuiesceMillis    = 1000
)

var errMQTTTimeout = errors.New("mqtt: timeout")

// MQTTOptions configures a PahoBroker.
type MQTTOptions struct {
	Broker         string
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
}

// PahoBroker implements Broker on top of the Eclipse Paho client.
type PahoBroker struct {
	client paho.Client
	qos    byte
	log    *logger.Logger

	mu       sync.Mutex
	handlers map[string]func([]byte)
}

// NewPahoBroker connects to the broker. A connect timeout is not fatal: the
// client keeps retrying in the background and endpoint reads fail until then.
func NewPahoBroker(opts MQTTOptions, log *logger.Logger) (*PahoBroker, error) {
	b := &PahoBroker{
		qos:      opts.QoS,
		log:      logger.OrNop(log),
		handlers: make(map[string]func([]byte)),
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(mqttRetryInterval).
		SetOnConnectHandler(b.resubscribe).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			b.log.Warnw("mqtt_connection_lost", "err", err)
		})

	b.client = paho.NewClient(co)
	token := b.client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		b.log.Warnw("mqtt_connect_pending", "broker", opts.Broker, "timeout", opts.ConnectTimeout)
		return b, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", opts.Broker, err)
	}
	return b, nil
}

// resubscribe restores every subscription after a (re)connect.
func (b *PahoBroker) resubscribe(c paho.Client) {
	b.mu.Lock()
	topics := make(map[string]func([]byte), len(b.handlers))
	for t, h := range b.handlers {
		topics[t] = h
	}
	b.mu.Unlock()

	for topic, h := range topics {
		if err := b.subscribe(c, topic, h); err != nil {
			b.log.Errorw("mqtt_resubscribe_failed", "topic", topic, "err", err)
		}
	}
	b.log.Infow("mqtt_connected", "topics", len(topics))
}

func (b *PahoBroker) subscribe(c paho.Client, topic string, h func([]byte)) error {
	token := c.Subscribe(topic, b.qos, func(_ paho.Client, m paho.Message) {
		h(m.Payload())
	})
	if !token.WaitTimeout(mqttSubscribeTimeout) {
		return errMQTTTimeout
	}
	return token.Error()
}

func (b *PahoBroker) Subscribe(topic string, handler func([]byte)) error {
	b.mu.Lock()
	b.handlers[topic] = handler
	b.mu.Unlock()

	if !b.client.IsConnectionOpen() {
		// picked up by resubscribe once connected
		return nil
	}
	return b.subscribe(b.client, topic, handler)
}

func (b *PahoBroker) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	timeout := mqttPublishTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	token := b.client.Publish(topic, b.qos, retained, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: %w", topic, errMQTTTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (b *PahoBroker) Close() error {
	b.client.Disconnect(mqttQuiesceMillis)
	return nil
}
