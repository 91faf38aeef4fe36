// Package nats connects the reactor protocol to NATS JetStream: a
// pull-based source and a publishing sink.
package nats

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/flowmesh/reactor"
)

// SubjectHeader carries the NATS subject a message was delivered on.
const SubjectHeader = "x-nats-subject"

// JetStreamSource is a pull-based reactor.Publisher over a JetStream
// subscription. JetStream's Fetch is itself a pull API, so demand maps
// onto it almost directly: each Fetch call requests exactly as many
// messages as the subscriber currently has outstanding demand for, capped
// at FetchBatchSize.
type JetStreamSource struct {
	conn         *nats.Conn
	subscription *nats.Subscription
	logger       *slog.Logger
}

// FetchBatchSize bounds how many messages a single Fetch call requests,
// regardless of how much larger outstanding demand is.
var FetchBatchSize = 16

var _ reactor.Publisher = (*JetStreamSource)(nil)

// NewJetStreamSource connects to url and creates a pull consumer on
// subjectName.
func NewJetStreamSource(subjectName, url string, logger *slog.Logger) (*JetStreamSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}
	sub, err := js.PullSubscribe(subjectName, "reactor-jetstream-source",
		nats.PullMaxWaiting(128))
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &JetStreamSource{
		conn:         nc,
		subscription: sub,
		logger:       logger.With(slog.String("connector", "nats.jetstream.source")),
	}, nil
}

// Subscribe implements reactor.Publisher.
func (s *JetStreamSource) Subscribe(downstream reactor.Subscriber) {
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

func (s *JetStreamSource) run(ctx context.Context, downstream reactor.Subscriber,
	sub *reactor.BaseSubscription, wake chan struct{}) {
	defer s.close()
	for {
		if sub.Cancelled() {
			return
		}
		remaining := sub.Remaining()
		if remaining == 0 {
			select {
			case <-wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		batch := FetchBatchSize
		if remaining != reactor.Unbounded && remaining < uint64(batch) {
			batch = int(remaining)
		}
		msgs, err := s.subscription.Fetch(batch, nats.Context(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("fetch failed", slog.Any("error", err))
			continue
		}
		for _, msg := range msgs {
			if err := msg.Ack(); err != nil {
				s.logger.Warn("ack failed", slog.Any("error", err))
			}
			if !sub.TryEmit() {
				continue
			}
			env := reactor.NewEnvelope(msg.Data)
			env.SetHeader(SubjectHeader, msg.Subject)
			downstream.OnNext(env)
		}
	}
}

func (s *JetStreamSource) close() {
	if err := s.subscription.Drain(); err != nil {
		s.logger.Warn("drain failed", slog.Any("error", err))
	}
	s.conn.Close()
}

func poke(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

// JetStreamSink publishes every received Envelope payload (or raw []byte)
// to a JetStream subject, creating the backing stream on first use if
// necessary.
type JetStreamSink struct {
	conn        *nats.Conn
	js          nats.JetStreamContext
	subjectName string
	logger      *slog.Logger
}

var _ reactor.Subscriber = (*JetStreamSink)(nil)

// NewJetStreamSink connects to url and ensures streamName/subjectName exist.
func NewJetStreamSink(streamName, subjectName, url string, logger *slog.Logger) (*JetStreamSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}
	if info, _ := js.StreamInfo(streamName); info == nil {
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{subjectName},
		}); err != nil {
			nc.Close()
			return nil, err
		}
	}
	return &JetStreamSink{
		conn:        nc,
		js:          js,
		subjectName: subjectName,
		logger:      logger.With(slog.String("connector", "nats.jetstream.sink")),
	}, nil
}

// OnSubscribe implements reactor.Subscriber.
func (s *JetStreamSink) OnSubscribe(sub reactor.Subscription) {
	sub.Request(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (s *JetStreamSink) OnNext(v any) {
	var payload []byte
	switch m := v.(type) {
	case *reactor.Envelope[[]byte]:
		payload = m.Payload
	case []byte:
		payload = m
	default:
		s.logger.Error("unsupported message type")
		return
	}
	if _, err := s.js.Publish(s.subjectName, payload); err != nil {
		s.logger.Error("publish failed", slog.Any("error", err))
	}
}

// OnError implements reactor.Subscriber.
func (s *JetStreamSink) OnError(err error) {
	s.logger.Error("upstream error", slog.Any("error", err))
	s.drain()
}

// OnComplete implements reactor.Subscriber.
func (s *JetStreamSink) OnComplete() {
	s.drain()
}

func (s *JetStreamSink) drain() {
	if err := s.conn.Drain(); err != nil {
		s.logger.Warn("drain failed", slog.Any("error", err))
	}
}
