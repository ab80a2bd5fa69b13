package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultPingInterval = 30 * time.Second
	handshakeTimeout    = 10 * time.Second
	writeTimeout        = 10 * time.Second
)

// ErrClosed is returned to waiters when the connection goes away.
var ErrClosed = errors.New("signature websocket closed")

// SignatureWSClient tracks transaction signatures over a Solana RPC
// websocket using signatureSubscribe. One connection serves any number of
// concurrent waiters. It does not reconnect: subscriptions do not survive a
// new connection, so callers see ErrClosed and decide for themselves.
type SignatureWSClient struct {
	url          string
	pingInterval time.Duration
	log          *logrus.Entry

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*pendingSub
	subs    map[uint64]chan SignatureResult
	readErr error

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

type pendingSub struct {
	resp   chan subscribeResponse
	notify chan SignatureResult
}

type subscribeResponse struct {
	subID uint64
	err   error
}

// SignatureResult is one signatureNotification. Err is the raw on-chain
// transaction error, empty when the transaction succeeded.
type SignatureResult struct {
	Slot uint64
	Err  json.RawMessage
}

func (r SignatureResult) Failed() bool {
	return len(r.Err) > 0 && string(r.Err) != "null"
}

// TransactionError is a transaction that landed but failed on chain.
type TransactionError struct {
	Signature solana.Signature
	Slot      uint64
	Err       json.RawMessage
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed at slot %d: %s", e.Signature, e.Slot, string(e.Err))
}

// RPCError is a JSON-RPC error answer to a subscribe request.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type wsMessage struct {
	ID     *uint64         `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	Method string          `json:"method"`
	Params *struct {
		Result       json.RawMessage `json:"result"`
		Subscription uint64          `json:"subscription"`
	} `json:"params"`
}

type notificationResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value json.RawMessage `json:"value"`
}

type Option func(*SignatureWSClient)

func WithPingInterval(d time.Duration) Option {
	return func(c *SignatureWSClient) { c.pingInterval = d }
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *SignatureWSClient) { c.log = log }
}

func NewSignatureWSClient(url string, opts ...Option) *SignatureWSClient {
	c := &SignatureWSClient{
		url:          url,
		pingInterval: defaultPingInterval,
		log:          logrus.WithField("component", "signature_ws"),
		pending:      make(map[uint64]*pendingSub),
		subs:         make(map[uint64]chan SignatureResult),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SignatureWSClient) Connect(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakeTimeout

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return errors.Wrapf(err, "connect %s", c.url)
	}
	conn.SetPongHandler(func(string) error {
		c.log.Debug("pong")
		return nil
	})
	c.conn = conn

	c.log.WithField("url", c.url).Info("signature websocket connected")

	go c.handleMessages()
	go c.handlePing()
	return nil
}

// SubscribeSignature registers interest in sig and returns the subscription
// id and a channel that receives exactly one result.
func (c *SignatureWSClient) SubscribeSignature(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) (uint64, <-chan SignatureResult, error) {
	if c.conn == nil {
		return 0, nil, errors.New("signature websocket not connected")
	}
	p := &pendingSub{
		resp:   make(chan subscribeResponse, 1),
		notify: make(chan SignatureResult, 1),
	}

	c.mu.Lock()
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return 0, nil, err
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = p
	c.mu.Unlock()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "signatureSubscribe",
		Params:  []any{sig.String(), map[string]any{"commitment": commitment}},
	}
	if err := c.send(req); err != nil {
		c.dropPending(id)
		return 0, nil, err
	}

	select {
	case r := <-p.resp:
		if r.err != nil {
			return 0, nil, r.err
		}
		return r.subID, p.notify, nil
	case <-ctx.Done():
		c.dropPending(id)
		return 0, nil, ctx.Err()
	case <-c.doneCh:
		return 0, nil, c.closedErr()
	}
}

// Unsubscribe cancels a signature subscription. Unknown ids are ignored by
// the node.
func (c *SignatureWSClient) Unsubscribe(subID uint64) error {
	c.mu.Lock()
	delete(c.subs, subID)
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	return c.send(wsRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "signatureUnsubscribe",
		Params:  []any{subID},
	})
}

// WaitForSignature blocks until sig reaches commitment. A transaction that
// landed with an error returns *TransactionError.
func (c *SignatureWSClient) WaitForSignature(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error {
	subID, ch, err := c.SubscribeSignature(ctx, sig, commitment)
	if err != nil {
		return errors.Wrapf(err, "subscribe %s", sig)
	}

	select {
	case res := <-ch:
		if res.Failed() {
			return &TransactionError{Signature: sig, Slot: res.Slot, Err: res.Err}
		}
		return nil
	case <-ctx.Done():
		if err := c.Unsubscribe(subID); err != nil {
			c.log.WithError(err).Debug("unsubscribe after cancel")
		}
		return ctx.Err()
	case <-c.doneCh:
		return c.closedErr()
	}
}

func (c *SignatureWSClient) send(msg any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	return errors.Wrap(c.conn.WriteJSON(msg), "write")
}

func (c *SignatureWSClient) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *SignatureWSClient) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return c.readErr
	}
	return ErrClosed
}

func (c *SignatureWSClient) handleMessages() {
	defer close(c.doneCh)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				err = ErrClosed
			default:
				c.log.WithError(err).Warn("signature websocket read error")
				err = errors.Wrap(ErrClosed, err.Error())
			}
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Debug("ignoring undecodable message")
			continue
		}
		switch {
		case msg.ID != nil:
			c.handleResponse(*msg.ID, msg)
		case msg.Method == "signatureNotification" && msg.Params != nil:
			c.handleNotification(msg.Params.Subscription, msg.Params.Result)
		}
	}
}

func (c *SignatureWSClient) handleResponse(id uint64, msg wsMessage) {
	c.mu.Lock()
	p, ok := c.pending[id]
	delete(c.pending, id)
	if !ok {
		c.mu.Unlock()
		return
	}
	if msg.Error != nil {
		c.mu.Unlock()
		p.resp <- subscribeResponse{err: msg.Error}
		return
	}
	var subID uint64
	if err := json.Unmarshal(msg.Result, &subID); err != nil {
		c.mu.Unlock()
		p.resp <- subscribeResponse{err: errors.Wrap(err, "decode subscription id")}
		return
	}
	// registered before the caller is released so an early notification
	// finds its channel
	c.subs[subID] = p.notify
	c.mu.Unlock()
	p.resp <- subscribeResponse{subID: subID}
}

func (c *SignatureWSClient) handleNotification(subID uint64, raw json.RawMessage) {
	var n notificationResult
	if err := json.Unmarshal(raw, &n); err != nil {
		c.log.WithError(err).Debug("ignoring undecodable notification")
		return
	}
	var value struct {
		Err json.RawMessage `json:"err"`
	}
	if err := json.Unmarshal(n.Value, &value); err != nil {
		// receivedSignature notifications carry a bare string
		return
	}

	c.mu.Lock()
	ch, ok := c.subs[subID]
	delete(c.subs, subID)
	c.mu.Unlock()
	if !ok {
		return
	}
	ch <- SignatureResult{Slot: n.Context.Slot, Err: value.Err}
}

func (c *SignatureWSClient) handlePing() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-c.doneCh:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.log.WithError(err).Warn("signature websocket ping error")
			}
		}
	}
}

func (c *SignatureWSClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stopCh)
		if c.conn == nil {
			return
		}
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
