package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/helios-trading/helios-data/internal/model"
)

var (
	// ErrStreamClosed is returned when connecting a stream that was closed.
	ErrStreamClosed = errors.New("stream already closed")

	// ErrStaleStream signals that no ping arrived within the stale window.
	ErrStaleStream = errors.New("stream stale, no ping received")
)

const (
	streamHandshakeTimeout = 10 * time.Second
	streamWriteTimeout     = 5 * time.Second
	streamPingInterval     = 30 * time.Second
	streamStaleAfter       = 3 * time.Minute
)

// StreamConfig configures a combined ticker stream.
type StreamConfig struct {
	URL        string   // base WebSocket URL
	Symbols    []string // symbols to subscribe, e.g. BTCUSDT
	BufferSize int      // tick channel capacity
}

// Stream is one combined WebSocket connection carrying a ticker stream
// per subscribed symbol.
type Stream struct {
	cfg    StreamConfig
	logger *slog.Logger

	conn *websocket.Conn

	ticks  chan model.Tick
	errors chan error
	done   chan struct{}

	mu         sync.RWMutex
	connected  bool
	lastPingAt time.Time
	closed     bool
}

// NewStream creates a stream. Connect must be called before ticks flow.
func NewStream(cfg StreamConfig, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 256
	}

	return &Stream{
		cfg:    cfg,
		logger: logger,
		ticks:  make(chan model.Tick, cfg.BufferSize),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// streamURL builds the combined stream endpoint:
// <base>/stream?streams=btcusdt@ticker/ethusdt@ticker
func (s *Stream) streamURL() string {
	names := make([]string, len(s.cfg.Symbols))
	for i, sym := range s.cfg.Symbols {
		names[i] = strings.ToLower(sym) + "@ticker"
	}
	return fmt.Sprintf("%s/stream?streams=%s", s.cfg.URL, strings.Join(names, "/"))
}

// Connect dials the combined stream and starts the read and heartbeat
// loops.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	s.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: streamHandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, s.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.lastPingAt = time.Now()
	s.mu.Unlock()

	// Binance pings every few minutes and disconnects clients that do
	// not pong back.
	conn.SetPingHandler(func(data string) error {
		s.mu.Lock()
		s.lastPingAt = time.Now()
		s.mu.Unlock()

		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	conn.SetPongHandler(func(data string) error {
		s.mu.Lock()
		s.lastPingAt = time.Now()
		s.mu.Unlock()
		return nil
	})

	go s.readLoop()
	go s.heartbeatLoop()

	s.logger.Debug("stream connected", "symbols", len(s.cfg.Symbols))

	return nil
}

// Close gracefully closes the stream. Safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.connected = false
	s.mu.Unlock()

	close(s.done)

	if s.conn != nil {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return s.conn.Close()
	}

	return nil
}

// Ticks returns the channel of decoded ticks.
func (s *Stream) Ticks() <-chan model.Tick {
	return s.ticks
}

// Errors returns the channel of stream errors. At most one error is
// delivered; the stream stops reading after a failure.
func (s *Stream) Errors() <-chan error {
	return s.errors
}

// IsConnected returns the current connection state.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Stream) readLoop() {
	defer func() {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
	}()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				select {
				case s.errors <- err:
				default:
				}
				return
			}
		}

		tick, err := decodeStreamTick(data)
		if err != nil {
			s.logger.Warn("dropping malformed stream message", "error", err)
			continue
		}

		select {
		case s.ticks <- tick:
		case <-s.done:
			return
		default:
			s.logger.Warn("tick buffer full, dropping tick", "symbol", tick.Symbol)
		}
	}
}

func (s *Stream) heartbeatLoop() {
	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.RLock()
			conn := s.conn
			lastPing := s.lastPingAt
			s.mu.RUnlock()

			if conn != nil {
				deadline := time.Now().Add(streamWriteTimeout)
				if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
					s.logger.Debug("failed to send ping", "error", err)
				}
			}

			if time.Since(lastPing) > streamStaleAfter {
				s.logger.Warn("no ping received, stream stale", "last_ping", lastPing)
				select {
				case s.errors <- ErrStaleStream:
				default:
				}
				return
			}
		}
	}
}

// decodeStreamTick unwraps a combined stream envelope into a tick.
func decodeStreamTick(data []byte) (model.Tick, error) {
	var envelope StreamEvent
	if err := json.Unmarshal(data, &envelope); err != nil {
		return model.Tick{}, fmt.Errorf("decode envelope: %w", err)
	}

	var event TickerEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		return model.Tick{}, fmt.Errorf("decode ticker event: %w", err)
	}

	return event.ToTick()
}
