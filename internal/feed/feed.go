// Package feed implements a live websocket tick feed (a second, net-new
// concrete source feeding the C1 candle port) that normalizes raw trade
// ticks into fixed-interval OHLCV bars. It is grounded on the teacher's
// solana.WSClientImpl: same reconnect-with-backoff read loop and same ping
// loop, applied here to ticks instead of log notifications. Each decoded
// tick is normalized synchronously inside the read loop, so there is no
// intermediate buffer that could drop it; messages that fail to decode,
// or carry no token or a non-positive price, are skipped.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"callbench/internal/domain"
	"callbench/internal/observability"
)

// Config configures reconnect and keepalive behavior for Client.
type Config struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultConfig mirrors the teacher's solana.DefaultWSConfig values.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Tick is one normalized trade print off the wire.
type Tick struct {
	Token    string
	Chain    string
	PriceUSD float64
	TsMs     int64
}

type wireTick struct {
	Token string  `json:"token"`
	Chain string  `json:"chain"`
	Price float64 `json:"price"`
	TsMs  int64   `json:"tsMs"`
}

// Sink receives completed candles as the normalizer rolls bars over. A
// candlestore-backed sink lets a live feed populate the same store C1
// reads from.
type Sink interface {
	Append(token, chain, interval string, candle domain.Candle)
}

// Client is a reconnecting websocket tick feed that normalizes ticks into
// candles at a fixed interval and forwards completed bars to a Sink.
type Client struct {
	endpoint string
	interval time.Duration
	cfg      Config
	sink     Sink

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	norm   *normalizer
	normMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewClient dials endpoint and starts the read/ping loops. interval is
// the candle bucket width (e.g. time.Minute for "1m").
func NewClient(ctx context.Context, endpoint string, interval time.Duration, sink Sink, cfg Config) (*Client, error) {
	c := &Client{
		endpoint: endpoint,
		interval: interval,
		cfg:      cfg,
		sink:     sink,
		norm:     newNormalizer(interval, sink),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("feed: websocket dial: %w", err)
	}
	c.conn = conn
	return nil
}

// Close shuts down the client and flushes the in-progress bucket of every
// series to the sink.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()

	c.normMu.Lock()
	c.norm.flushAll()
	c.normMu.Unlock()
	return nil
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	delay := c.cfg.ReconnectDelay
	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			observability.RecordFeedReconnect()
			go c.reconnect(delay)
			delay *= 2
			if delay > c.cfg.MaxReconnectDelay {
				delay = c.cfg.MaxReconnectDelay
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		delay = c.cfg.ReconnectDelay
		c.handleMessage(message)
	}
}

func (c *Client) reconnect(delay time.Duration) {
	if c.closed.Load() {
		return
	}
	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c.connect(ctx)
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var wt wireTick
	if err := json.Unmarshal(message, &wt); err != nil {
		return
	}
	if wt.Token == "" || wt.Price <= 0 {
		return
	}

	observability.RecordFeedTick()
	c.normMu.Lock()
	c.norm.ingest(Tick{Token: wt.Token, Chain: wt.Chain, PriceUSD: wt.Price, TsMs: wt.TsMs})
	c.normMu.Unlock()
}
