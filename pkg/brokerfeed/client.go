// Package brokerfeed is a thin client for the brokerage historical-data
// API. It handles the TOTP session login and candle fetches; everything
// else the broker offers is out of scope for this system.
//
// The core never imports this package directly — the data service does,
// and only when auto-fetch is enabled.
package brokerfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"backtest-systemv1/internal/model"
)

const (
	defaultRootURL = "https://apiconnect.brokerage.example"
	defaultTimeout = 7 * time.Second

	loginRoute   = "/rest/auth/user/v1/loginByPassword"
	candlesRoute = "/rest/secure/historical/v1/getCandleData"
)

// Config configures the broker client.
type Config struct {
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string // base32 secret; the login code is generated per call

	RootURL string        // default: defaultRootURL
	Timeout time.Duration // default: 7s
}

// Client is a logged-in broker API client.
type Client struct {
	cfg        Config
	httpClient *http.Client

	accessToken string
	feedToken   string
}

// NewClient builds an unauthenticated client; call Login before fetching.
func NewClient(cfg Config) *Client {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRootURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.RootURL = strings.TrimRight(cfg.RootURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// FeedToken returns the websocket feed token obtained at login.
func (c *Client) FeedToken() string { return c.feedToken }

// Login generates a fresh TOTP code from the configured secret and opens a
// session. Tokens are kept on the client for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	code, err := totp.GenerateCode(c.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("brokerfeed login: generate totp: %w", err)
	}

	var resp struct {
		Status bool   `json:"status"`
		Msg    string `json:"message"`
		Data   struct {
			JWTToken  string `json:"jwtToken"`
			FeedToken string `json:"feedToken"`
		} `json:"data"`
	}
	err = c.post(ctx, loginRoute, map[string]any{
		"clientcode": c.cfg.ClientCode,
		"password":   c.cfg.Password,
		"totp":       code,
	}, &resp)
	if err != nil {
		return fmt.Errorf("brokerfeed login: %w", err)
	}
	if !resp.Status {
		return fmt.Errorf("brokerfeed login rejected: %s", resp.Msg)
	}

	c.accessToken = resp.Data.JWTToken
	c.feedToken = resp.Data.FeedToken
	return nil
}

// FetchCandles loads historical OHLCV bars for a symbol between from and
// to at the given resolution (e.g. "ONE_DAY"). Bars come back in the
// broker's order, which is timestamp ascending.
func (c *Client) FetchCandles(ctx context.Context, symbol, resolution string, from, to time.Time) (model.Series, error) {
	var resp struct {
		Status bool        `json:"status"`
		Msg    string      `json:"message"`
		Data   [][]float64 `json:"data"` // [ts, open, high, low, close, volume]
	}
	err := c.post(ctx, candlesRoute, map[string]any{
		"symboltoken": symbol,
		"interval":    resolution,
		"fromdate":    from.Format("2006-01-02 15:04"),
		"todate":      to.Format("2006-01-02 15:04"),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("brokerfeed fetch candles: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("brokerfeed fetch candles rejected: %s", resp.Msg)
	}

	bars := make(model.Series, 0, len(resp.Data))
	for i, row := range resp.Data {
		if len(row) < 6 {
			return nil, fmt.Errorf("brokerfeed candle %d: short row (%d fields)", i, len(row))
		}
		bars = append(bars, model.Bar{
			TS:     time.Unix(int64(row[0]), 0).UTC(),
			Open:   row[1],
			High:   row[2],
			Low:    row[3],
			Close:  row[4],
			Volume: row[5],
		})
	}
	return bars, nil
}

func (c *Client) post(ctx context.Context, route string, params map[string]any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RootURL+route, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-PrivateKey", c.cfg.APIKey)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d: %s", resp.StatusCode, truncate(data, 200))
	}
	return json.Unmarshal(data, out)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
