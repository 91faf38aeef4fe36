// Package websocket connects the reactor protocol to a WebSocket
// connection: a source reading inbound frames and a sink writing outbound
// ones.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	ws "github.com/gorilla/websocket"

	"github.com/flowmesh/reactor"
)

// Message is a WebSocket frame, per [RFC 6455] §11.8.
//
// [RFC 6455]: https://www.rfc-editor.org/rfc/rfc6455.html#section-11.8
type Message struct {
	MsgType int
	Payload []byte
}

// Source is a reactor.Publisher reading frames off a WebSocket connection.
// ReadMessage has no native pull API: the connection delivers frames
// whenever the peer sends them, so Source reads at most one frame ahead of
// outstanding demand and holds it until that demand arrives, rather than
// buffering unboundedly or blocking the read loop indefinitely with demand
// already exhausted.
type Source struct {
	conn   *ws.Conn
	logger *slog.Logger
}

var _ reactor.Publisher = (*Source)(nil)

// NewSource dials url with the default dialer.
func NewSource(url string, logger *slog.Logger) (*Source, error) {
	return NewSourceWithDialer(url, ws.DefaultDialer, logger)
}

// NewSourceWithDialer dials url with dialer.
func NewSourceWithDialer(url string, dialer *ws.Dialer, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &Source{conn: conn, logger: logger.With(slog.String("connector", "websocket.source"))}, nil
}

// Subscribe implements reactor.Publisher.
func (s *Source) Subscribe(downstream reactor.Subscriber) {
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	sub := reactor.NewBaseSubscription(
		func(uint64) { poke(wake) },
		cancel,
		func(err error) { downstream.OnError(err) },
	)
	downstream.OnSubscribe(sub)
	go s.readLoop(ctx, downstream, sub, wake)
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()
}

func (s *Source) readLoop(ctx context.Context, downstream reactor.Subscriber,
	sub *reactor.BaseSubscription, wake chan struct{}) {
	var mu sync.Mutex
	var lookahead *Message

	for {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		if lookahead != nil {
			if !sub.TryEmit() {
				mu.Unlock()
				select {
				case <-wake:
					continue
				case <-ctx.Done():
					return
				}
			}
			msg := *lookahead
			lookahead = nil
			mu.Unlock()
			downstream.OnNext(msg)
			continue
		}
		mu.Unlock()

		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("read failed", slog.Any("error", err))
				downstream.OnError(reactor.NewSignalError(reactor.KindFatal, err))
			}
			return
		}
		if msgType == ws.CloseMessage {
			downstream.OnComplete()
			return
		}

		msg := Message{MsgType: msgType, Payload: payload}
		mu.Lock()
		if sub.TryEmit() {
			mu.Unlock()
			downstream.OnNext(msg)
		} else {
			lookahead = &msg
			mu.Unlock()
		}
	}
}

func poke(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

// Sink is a reactor.Subscriber writing frames to a WebSocket connection.
type Sink struct {
	conn   *ws.Conn
	logger *slog.Logger
}

var _ reactor.Subscriber = (*Sink)(nil)

// NewSink dials url with the default dialer.
func NewSink(url string, logger *slog.Logger) (*Sink, error) {
	return NewSinkWithDialer(url, ws.DefaultDialer, logger)
}

// NewSinkWithDialer dials url with dialer.
func NewSinkWithDialer(url string, dialer *ws.Dialer, logger *slog.Logger) (*Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &Sink{conn: conn, logger: logger.With(slog.String("connector", "websocket.sink"))}, nil
}

// OnSubscribe implements reactor.Subscriber.
func (s *Sink) OnSubscribe(sub reactor.Subscription) {
	sub.Request(reactor.Unbounded)
}

// OnNext implements reactor.Subscriber.
func (s *Sink) OnNext(v any) {
	var err error
	switch m := v.(type) {
	case Message:
		err = s.conn.WriteMessage(m.MsgType, m.Payload)
	case *Message:
		err = s.conn.WriteMessage(m.MsgType, m.Payload)
	case string:
		err = s.conn.WriteMessage(ws.TextMessage, []byte(m))
	case []byte:
		err = s.conn.WriteMessage(ws.BinaryMessage, m)
	default:
		s.logger.Error("unsupported message type")
		return
	}
	if err != nil {
		s.logger.Error("write failed", slog.Any("error", err))
	}
}

// OnError implements reactor.Subscriber.
func (s *Sink) OnError(err error) {
	s.logger.Error("upstream error", slog.Any("error", err))
	s.conn.Close()
}

// OnComplete implements reactor.Subscriber.
func (s *Sink) OnComplete() {
	s.conn.Close()
}
