// Package redis connects the reactor protocol to Redis Pub/Sub.
package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/reactor"
)

// ChannelHeader carries the Redis channel a message was published on.
const ChannelHeader = "x-redis-channel"

// PubSubSource is a reactor.Publisher over a Redis Pub/Sub subscription.
// go-redis delivers messages on its own channel already, so demand pacing
// reduces to the same gated-read idiom extension.ChanSource uses: read the
// next message off pubsub.Channel() only once downstream has demand for it.
type PubSubSource struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
	logger  *slog.Logger
}

var _ reactor.Publisher = (*PubSubSource)(nil)

// NewPubSubSource subscribes client to channel and returns a PubSubSource.
func NewPubSubSource(ctx context.Context, client *redis.Client, channel string,
	logger *slog.Logger) (*PubSubSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, err
	}
	return &PubSubSource{
		client:  client,
		pubsub:  pubsub,
		channel: channel,
		logger:  logger.With(slog.String("connector", "redis.pubsub.source")),
	}, nil
}

// Subscribe implements reactor.Publisher.
func (s *PubSubSource) Subscribe(downstream reactor.Subscriber) {
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	sub := reactor.NewBaseSubscription(
		func(uint64) { poke(wake) },
		cancel,
		func(err error) { downstream.OnError(err) },
	)
	downstream.OnSubscribe(sub)
	go s.run(ctx, downstream, sub, wake)
}

func (s *PubSubSource) run(ctx context.Context, downstream reactor.Subscriber,
	sub *reactor.BaseSubscription, wake chan struct{}) {
	defer s.close()
	ch := s.pubsub.Channel()
	for {
		if sub.Cancelled() {
			return
		}
		if !sub.TryEmit() {
			select {
			case <-wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case msg, ok := <-ch:
			if !ok {
				downstream.OnComplete()
				return
			}
			env := reactor.NewEnvelope([]byte(msg.Payload))
			env.SetHeader(ChannelHeader, msg.Channel)
			downstream.OnNext(env)
		case <-ctx.Done():
			return
		}
	}
}

func (s *PubSubSource) close() {
	if err := s.pubsub.Close(); err != nil {
		s.logger.Warn("close failed", slog.Any("error", err))
	}
	if err := s.client.Close(); err != nil {
		s.logger.Warn("client close failed", slog.Any("error", err))
	}
}

func poke(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

// PubSubSink publishes every Envelope payload (or string/[]byte) it
// receives to a Redis channel.
type PubSubSink struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

var _ reactor.Subscriber = (*PubSubSink)(nil)

// NewPubSubSink returns a PubSubSink publishing to channel via client.
func NewPubSubSink(client *redis.Client, channel string, logger *slog.Logger) *PubSubSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PubSubSink{
		client:  client,
		channel: channel,
		logger:  logger.With(slog.String("connector", "redis.pubsub.sink")),
	}
}

// OnSubscribe implements reactor.Subscriber.
func (s *PubSubSink) OnSubscribe(sub reactor.Subscription) {
	sub.Request(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (s *PubSubSink) OnNext(v any) {
	ctx := context.Background()
	var err error
	switch m := v.(type) {
	case *reactor.Envelope[[]byte]:
		err = s.client.Publish(ctx, s.channel, m.Payload).Err()
	case string:
		err = s.client.Publish(ctx, s.channel, m).Err()
	case []byte:
		err = s.client.Publish(ctx, s.channel, m).Err()
	default:
		s.logger.Error("unsupported message type")
		return
	}
	if err != nil {
		s.logger.Error("publish failed", slog.Any("error", err))
	}
}

// OnError implements reactor.Subscriber.
func (s *PubSubSink) OnError(err error) {
	s.logger.Error("upstream error", slog.Any("error", err))
	s.client.Close()
}

// OnComplete implements reactor.Subscriber.
func (s *PubSubSink) OnComplete() {
	s.client.Close()
}
