// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/tomtom215/orderboard/internal/breaker"
	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/orders"
)

// Generated bridge subscriptions expire this long after the last pull, so a
// crashed instance does not leave them behind forever.
const pubsubSubscriptionExpiry = 24 * time.Hour

// NewPubSubClient creates a client for cfg.ProjectID. With an Endpoint set
// the client talks plaintext gRPC to an emulator without credentials.
func NewPubSubClient(ctx context.Context, cfg *config.GCPPubSubConfig) (*pubsub.Client, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts,
			option.WithEndpoint(cfg.Endpoint),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return client, nil
}

// ensureTopic returns the topic, creating it when missing.
func ensureTopic(ctx context.Context, client *pubsub.Client, id string) (*pubsub.Topic, error) {
	topic := client.Topic(id)
	ok, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", id, err)
	}
	if ok {
		return topic, nil
	}
	topic, err = client.CreateTopic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create topic %s: %w", id, err)
	}
	logging.Info().Str("topic", id).Msg("Created Pub/Sub topic")
	return topic, nil
}

// PubSubRelay publishes to a Google Cloud Pub/Sub topic.
type PubSubRelay struct {
	client     *pubsub.Client
	topic      *pubsub.Topic
	ownsClient bool
	route      Route
	breaker    *breaker.Breaker

	mu     sync.RWMutex
	closed bool
}

// NewPubSubRelay connects to cfg.ProjectID and prepares cfg.Topic.
func NewPubSubRelay(ctx context.Context, cfg *config.GCPPubSubConfig, route Route) (*PubSubRelay, error) {
	client, err := NewPubSubClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r, err := newPubSubRelay(ctx, client, cfg.Topic, route)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	r.ownsClient = true
	return r, nil
}

// NewPubSubRelayWithClient publishes through an existing client. Close
// leaves the client open.
func NewPubSubRelayWithClient(ctx context.Context, client *pubsub.Client, topicID string, route Route) (*PubSubRelay, error) {
	return newPubSubRelay(ctx, client, topicID, route)
}

func newPubSubRelay(ctx context.Context, client *pubsub.Client, topicID string, route Route) (*PubSubRelay, error) {
	topic, err := ensureTopic(ctx, client, topicID)
	if err != nil {
		return nil, err
	}
	return &PubSubRelay{
		client:  client,
		topic:   topic,
		route:   route,
		breaker: breaker.New("relay-" + config.TransportGCPPubSub),
	}, nil
}

// Name returns the transport name.
func (r *PubSubRelay) Name() string { return config.TransportGCPPubSub }

// Publish sends o and waits for the server to acknowledge it.
func (r *PubSubRelay) Publish(ctx context.Context, o orders.Order) (err error) {
	start := time.Now()
	defer func() { observe(config.TransportGCPPubSub, start, err) }()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	payload, err := EncodeOrder(o)
	if err != nil {
		return err
	}
	return r.breaker.Do(func() error {
		res := r.topic.Publish(ctx, &pubsub.Message{
			Data: payload,
			Attributes: map[string]string{
				AttrChannel: r.route.Channel,
				AttrEvent:   r.route.Event,
			},
		})
		_, err := res.Get(ctx)
		return err
	})
}

// Close flushes pending publishes and releases the client when owned.
func (r *PubSubRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.topic.Stop()
	if r.ownsClient {
		return r.client.Close()
	}
	return nil
}

// PubSubBridge pulls from a subscription private to this instance, so every
// instance sees every event.
type PubSubBridge struct {
	cfg       config.GCPPubSubConfig
	route     Route
	sink      Sink
	client    *pubsub.Client
	subID     string
	generated bool
}

// NewPubSubBridge creates a bridge that opens its own client in Serve.
// Without a configured subscription a unique one is generated and deleted
// again when Serve returns.
func NewPubSubBridge(cfg *config.GCPPubSubConfig, route Route, sink Sink) *PubSubBridge {
	b := &PubSubBridge{cfg: *cfg, route: route, sink: sink, subID: cfg.Subscription}
	if b.subID == "" {
		b.subID = "orderboard-" + uuid.NewString()
		b.generated = true
	}
	return b
}

// NewPubSubBridgeWithClient is NewPubSubBridge over an existing client.
func NewPubSubBridgeWithClient(client *pubsub.Client, cfg *config.GCPPubSubConfig, route Route, sink Sink) *PubSubBridge {
	b := NewPubSubBridge(cfg, route, sink)
	b.client = client
	return b
}

func (b *PubSubBridge) String() string { return "gcppubsub-bridge" }

// SubscriptionID returns the subscription the bridge pulls from.
func (b *PubSubBridge) SubscriptionID() string { return b.subID }

// Serve receives until ctx ends.
func (b *PubSubBridge) Serve(ctx context.Context) (err error) {
	client := b.client
	if client == nil {
		client, err = NewPubSubClient(ctx, &b.cfg)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := client.Close(); cerr != nil {
				logging.Warn().Err(cerr).Msg("Pub/Sub bridge client close failed")
			}
		}()
	}

	sub, err := b.ensureSubscription(ctx, client)
	if err != nil {
		return err
	}
	if b.generated {
		defer b.cleanup(sub)
	}
	logging.Info().Str("subscription", b.subID).Str("topic", b.cfg.Topic).Msg("Pub/Sub bridge subscribed")

	err = sub.Receive(ctx, func(_ context.Context, m *pubsub.Message) {
		deliver(b.sink, config.TransportGCPPubSub, b.route, m.Attributes[AttrChannel], m.Attributes[AttrEvent], m.Data)
		m.Ack()
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("pubsub receive on %s: %w", b.subID, err)
	}
	return errors.New("pubsub bridge: receive returned")
}

func (b *PubSubBridge) ensureSubscription(ctx context.Context, client *pubsub.Client) (*pubsub.Subscription, error) {
	topic, err := ensureTopic(ctx, client, b.cfg.Topic)
	if err != nil {
		return nil, err
	}
	sub := client.Subscription(b.subID)
	ok, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription %s: %w", b.subID, err)
	}
	if ok {
		return sub, nil
	}
	sub, err = client.CreateSubscription(ctx, b.subID, pubsub.SubscriptionConfig{
		Topic:            topic,
		AckDeadline:      10 * time.Second,
		ExpirationPolicy: pubsubSubscriptionExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription %s: %w", b.subID, err)
	}
	return sub, nil
}

func (b *PubSubBridge) cleanup(sub *pubsub.Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sub.Delete(ctx); err != nil {
		logging.Warn().Err(err).Str("subscription", b.subID).Msg("Pub/Sub bridge subscription delete failed")
	}
}
