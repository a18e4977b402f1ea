package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nftwatch/internal/model"
)

// Client is a websocket client for a rippled or Clio server. It multiplexes
// request/response pairs (correlated by the request id) and transaction
// stream messages over one connection.
type Client struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan responseEnvelope

	txs  chan model.Transaction
	errs chan error

	closeOnce sync.Once
	done      chan struct{}
}

type responseEnvelope struct {
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	ErrorMessage string          `json:"error_message"`
	ErrorCode    string          `json:"error"`
}

type streamEnvelope struct {
	ID          json.RawMessage        `json:"id"`
	Type        string                 `json:"type"`
	Transaction *model.Transaction     `json:"transaction"`
	TxJSON      *model.Transaction     `json:"tx_json"`
	Meta        *model.TransactionMeta `json:"meta"`
	Validated   bool                   `json:"validated"`

	responseEnvelope
}

// Dial connects to the given websocket URL and starts the read pump.
func Dial(ctx context.Context, url string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		pending: make(map[string]chan responseEnvelope),
		txs:     make(chan model.Transaction, 64),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	go c.readPump()

	return c, nil
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Transactions delivers validated transactions from the subscribed stream.
func (c *Client) Transactions() <-chan model.Transaction {
	return c.txs
}

// Errs surfaces connection-level failures. A value here means the session is
// dead and must be rebuilt.
func (c *Client) Errs() <-chan error {
	return c.errs
}

// Request sends a command and waits for the correlated response. The id is
// echoed by the server and carries no protocol semantics beyond correlation.
func (c *Client) Request(ctx context.Context, id string, payload map[string]any) (json.RawMessage, error) {
	idKey, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}

	reply := make(chan responseEnvelope, 1)
	c.mu.Lock()
	if _, exists := c.pending[string(idKey)]; exists {
		c.mu.Unlock()
		return nil, fmt.Errorf("duplicate request id %q", id)
	}
	c.pending[string(idKey)] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, string(idKey))
		c.mu.Unlock()
	}()

	msg := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		msg[k] = v
	}
	msg["id"] = id

	c.writeMu.Lock()
	err = c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write request %q: %w", id, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("connection closed while waiting for %q", id)
	case resp := <-reply:
		if resp.Status == "error" {
			if resp.ErrorMessage != "" {
				return nil, fmt.Errorf("request %q failed: %s", id, resp.ErrorMessage)
			}
			return nil, fmt.Errorf("request %q failed: %s", id, resp.ErrorCode)
		}
		return resp.Result, nil
	}
}

// Subscribe asserts a subscription to the global transactions stream.
func (c *Client) Subscribe(ctx context.Context, id string) error {
	_, err := c.Request(ctx, id, map[string]any{
		"command": "subscribe",
		"streams": []string{"transactions"},
	})
	return err
}

// Unsubscribe releases the transactions stream subscription.
func (c *Client) Unsubscribe(ctx context.Context, id string) error {
	_, err := c.Request(ctx, id, map[string]any{
		"command": "unsubscribe",
		"streams": []string{"transactions"},
	})
	return err
}

func (c *Client) readPump() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case c.errs <- fmt.Errorf("read: %w", err):
			case <-c.done:
			}
			return
		}

		var env streamEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("drop undecodable message", zap.Error(err))
			continue
		}

		switch {
		case env.Type == "transaction":
			tx := env.Transaction
			if tx == nil {
				tx = env.TxJSON
			}
			if tx == nil {
				c.logger.Warn("transaction envelope without payload")
				continue
			}
			tx.Meta = env.Meta
			select {
			case c.txs <- *tx:
			case <-c.done:
				return
			}

		case len(env.ID) > 0:
			c.mu.Lock()
			reply, ok := c.pending[string(env.ID)]
			c.mu.Unlock()
			if !ok {
				c.logger.Debug("response for unknown request id", zap.ByteString("id", env.ID))
				continue
			}
			reply <- env.responseEnvelope

		default:
			// Server-status and ledger stream chatter is expected noise.
		}
	}
}
