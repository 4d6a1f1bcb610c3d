package brokerfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"backtest-systemv1/internal/model"
)

// fakeFeed is an in-process websocket endpoint that records the subscribe
// request and then plays back a fixed set of candles.
func fakeFeed(t *testing.T, candles []model.Bar, subscribed chan<- []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// First client frame is the subscribe request.
		var sub struct {
			Action  string   `json:"action"`
			Symbols []string `json:"symbols"`
		}
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if sub.Action != "subscribe" {
			t.Errorf("first frame action = %q, want subscribe", sub.Action)
		}
		subscribed <- sub.Symbols

		for _, c := range candles {
			data, err := json.Marshal(c)
			if err != nil {
				t.Errorf("marshal candle: %v", err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}

		// Swallow replayed subscribes and heartbeats until the client
		// disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStream_DeliversCandles(t *testing.T) {
	candles := []model.Bar{
		{TS: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
		{TS: time.Date(2024, 1, 1, 9, 35, 0, 0, time.UTC), Open: 100.5, High: 102, Low: 100, Close: 101.5, Volume: 12},
	}
	subscribed := make(chan []string, 1)
	srv := fakeFeed(t, candles, subscribed)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := NewStream(NewClient(Config{APIKey: "key", ClientCode: "code"}), wsURL(srv))
	if err := stream.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer stream.Close()
	if err := stream.Subscribe([]string{"SPY"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	barCh := make(chan model.Bar, 4)
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx, barCh) }()

	for i, want := range candles {
		select {
		case got := <-barCh:
			if !got.TS.Equal(want.TS) || got.Close != want.Close {
				t.Errorf("candle %d: got %+v, want %+v", i, got, want)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for candle %d", i)
		}
	}

	select {
	case symbols := <-subscribed:
		if len(symbols) != 1 || symbols[0] != "SPY" {
			t.Errorf("subscribed symbols: got %v, want [SPY]", symbols)
		}
	case <-ctx.Done():
		t.Fatal("server never saw the subscribe request")
	}

	cancel()
	stream.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after close")
	}
}

func TestStream_DropsMalformedCandles(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte("pong"))
		conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		good, _ := json.Marshal(model.Bar{TS: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 42})
		conn.WriteMessage(websocket.TextMessage, good)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := NewStream(NewClient(Config{}), wsURL(srv))
	if err := stream.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer stream.Close()

	barCh := make(chan model.Bar, 4)
	go stream.Run(ctx, barCh)

	// Heartbeat replies and garbage frames are skipped; only the valid
	// candle comes through.
	select {
	case got := <-barCh:
		if got.Close != 42 {
			t.Errorf("candle close: got %f, want 42", got.Close)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for the valid candle")
	}
}

func TestStream_RunRequiresConnect(t *testing.T) {
	stream := NewStream(NewClient(Config{}), "")
	if err := stream.Run(context.Background(), make(chan model.Bar)); err == nil {
		t.Fatal("expected an error when Run is called before Connect")
	}
}
