// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/orderboard/internal/breaker"
	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/orders"
)

// Subject returns the NATS subject for a channel: <prefix>.<channel>.
func Subject(prefix, channel string) string {
	if prefix == "" {
		return channel
	}
	return prefix + "." + channel
}

// natsOptions are the connection options shared by publisher and subscriber.
func natsOptions(cfg *config.NATSConfig, logger watermill.LoggerAdapter, role string) []natsgo.Option {
	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	return []natsgo.Option{
		natsgo.Name("orderboard-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl(), "role": role})
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{"role": role}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}
}

// NATSRelay publishes through a Watermill NATS publisher on core NATS.
type NATSRelay struct {
	publisher message.Publisher
	subject   string
	route     Route
	breaker   *breaker.Breaker
	mu        sync.RWMutex
	closed    bool
}

// NewNATSRelay connects a publisher to cfg.URL.
func NewNATSRelay(cfg *config.NATSConfig, route Route) (*NATSRelay, error) {
	logger := logging.NewWatermillAdapter("relay-nats")

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg, logger, "publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &NATSRelay{
		publisher: pub,
		subject:   Subject(cfg.SubjectPrefix, route.Channel),
		route:     route,
		breaker:   breaker.New("relay-" + config.TransportNATS),
	}, nil
}

// Name returns the transport name.
func (r *NATSRelay) Name() string { return config.TransportNATS }

// Publish sends o with channel and event metadata.
func (r *NATSRelay) Publish(ctx context.Context, o orders.Order) (err error) {
	start := time.Now()
	defer func() { observe(config.TransportNATS, start, err) }()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	payload, err := EncodeOrder(o)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(AttrChannel, r.route.Channel)
	msg.Metadata.Set(AttrEvent, r.route.Event)
	msg.SetContext(ctx)

	return r.breaker.Do(func() error {
		return r.publisher.Publish(r.subject, msg)
	})
}

// Close flushes and closes the publisher.
func (r *NATSRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.publisher.Close()
}

// NATSBridge subscribes to the relay subject and feeds the local hub. Every
// instance receives every event; there is no queue group.
type NATSBridge struct {
	cfg   config.NATSConfig
	route Route
	sink  Sink
}

// NewNATSBridge creates a bridge; the connection is made in Serve.
func NewNATSBridge(cfg *config.NATSConfig, route Route, sink Sink) *NATSBridge {
	return &NATSBridge{cfg: *cfg, route: route, sink: sink}
}

func (b *NATSBridge) String() string { return "nats-bridge" }

// Serve subscribes until ctx ends. Returning early lets the supervisor
// restart it with backoff.
func (b *NATSBridge) Serve(ctx context.Context) error {
	logger := logging.NewWatermillAdapter("relay-nats-bridge")

	closeTimeout := b.cfg.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 5 * time.Second
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              b.cfg.URL,
		QueueGroupPrefix: "",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     closeTimeout,
		NatsOptions:      natsOptions(&b.cfg, logger, "bridge"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return fmt.Errorf("create watermill subscriber: %w", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			logging.Warn().Err(err).Msg("NATS bridge close failed")
		}
	}()

	subject := Subject(b.cfg.SubjectPrefix, b.route.Channel)
	messages, err := sub.Subscribe(ctx, subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	logging.Info().Str("subject", subject).Msg("NATS bridge subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("nats bridge: subscription on %s closed", subject)
			}
			deliver(b.sink, config.TransportNATS, b.route, msg.Metadata.Get(AttrChannel), msg.Metadata.Get(AttrEvent), msg.Payload)
			msg.Ack()
		}
	}
}
