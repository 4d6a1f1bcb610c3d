package brokerfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"backtest-systemv1/internal/model"
)

const (
	defaultStreamURL  = "wss://stream.brokerage.example/candle-stream"
	heartBeatMessage  = "ping"
	heartBeatInterval = 10 * time.Second
)

// Stream is a live candle feed over websocket. It is a boundary
// collaborator only: the backtest core never consumes it, but the ingest
// pipeline can append live bars to the store with it.
type Stream struct {
	url        string
	apiKey     string
	clientCode string
	feedToken  string

	mu         sync.Mutex
	conn       *websocket.Conn
	subscribed []string
}

// NewStream builds a stream client from a logged-in Client.
func NewStream(c *Client, url string) *Stream {
	if url == "" {
		url = defaultStreamURL
	}
	return &Stream{
		url:        url,
		apiKey:     c.cfg.APIKey,
		clientCode: c.cfg.ClientCode,
		feedToken:  c.feedToken,
	}
}

// Connect dials the feed and authenticates via headers.
func (s *Stream) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.feedToken)
	header.Set("x-api-key", s.apiKey)
	header.Set("x-client-code", s.clientCode)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, header)
	if err != nil {
		return fmt.Errorf("brokerfeed stream dial: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	log.Printf("[brokerfeed] stream connected to %s", s.url)
	return nil
}

// Subscribe registers symbols for live candles. Safe to call before or
// after Connect; subscriptions are replayed on reconnect.
func (s *Stream) Subscribe(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, symbols...)
	if s.conn == nil {
		return nil
	}
	return s.sendSubscribe(symbols)
}

func (s *Stream) sendSubscribe(symbols []string) error {
	msg := map[string]any{"action": "subscribe", "symbols": symbols}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("brokerfeed subscribe: %w", err)
	}
	return nil
}

// Run reads candles into barCh until ctx is cancelled or the connection
// drops. A heartbeat goroutine keeps the feed alive. The caller owns
// reconnect policy; Run itself never retries.
func (s *Stream) Run(ctx context.Context, barCh chan<- model.Bar) error {
	s.mu.Lock()
	conn := s.conn
	if conn != nil && len(s.subscribed) > 0 {
		if err := s.sendSubscribe(s.subscribed); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("brokerfeed stream: not connected")
	}

	go s.heartbeat(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("brokerfeed stream read: %w", err)
		}
		if string(data) == "pong" {
			continue
		}

		var bar model.Bar
		if err := json.Unmarshal(data, &bar); err != nil {
			log.Printf("[brokerfeed] dropping malformed candle: %v", err)
			continue
		}

		select {
		case barCh <- bar:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Stream) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(heartBeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.TextMessage, []byte(heartBeatMessage)); err != nil {
				log.Printf("[brokerfeed] heartbeat failed: %v", err)
				return
			}
		}
	}
}

// Close tears the connection down.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
