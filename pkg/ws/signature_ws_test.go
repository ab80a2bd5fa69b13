package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscribeReq struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers each signatureSubscribe with subscription id 100+n and
// then, if notify is set, sends the notification it returns.
func fakeNode(t *testing.T, notify func(subID uint64) any, errReply bool) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var n uint64
		for {
			var req subscribeReq
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Method != "signatureSubscribe" {
				continue
			}
			if errReply {
				_ = conn.WriteJSON(map[string]any{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"error":   map[string]any{"code": -32602, "message": "Invalid param"},
				})
				continue
			}
			n++
			subID := 100 + n
			_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": subID})
			if notify != nil {
				_ = conn.WriteJSON(notify(subID))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func notification(subID uint64, value any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"method":  "signatureNotification",
		"params": map[string]any{
			"subscription": subID,
			"result": map[string]any{
				"context": map[string]any{"slot": 5207624},
				"value":   value,
			},
		},
	}
}

func connect(t *testing.T, srv *httptest.Server) *SignatureWSClient {
	t.Helper()
	c := NewSignatureWSClient("ws"+strings.TrimPrefix(srv.URL, "http"), WithPingInterval(20*time.Millisecond))
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testSignature(t *testing.T) solana.Signature {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	sig, err := key.Sign([]byte("msg"))
	require.NoError(t, err)
	return sig
}

func TestWaitForSignatureSuccess(t *testing.T) {
	srv := fakeNode(t, func(subID uint64) any {
		return notification(subID, map[string]any{"err": nil})
	}, false)
	c := connect(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, c.WaitForSignature(ctx, testSignature(t), rpc.CommitmentConfirmed))
}

func TestWaitForSignatureOnChainFailure(t *testing.T) {
	srv := fakeNode(t, func(subID uint64) any {
		return notification(subID, map[string]any{"err": map[string]any{"InstructionError": []any{0, "Custom"}}})
	}, false)
	c := connect(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.WaitForSignature(ctx, testSignature(t), rpc.CommitmentConfirmed)

	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, uint64(5207624), txErr.Slot)
	assert.Contains(t, string(txErr.Err), "InstructionError")
}

func TestWaitForSignatureRPCError(t *testing.T) {
	c := connect(t, fakeNode(t, nil, true))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.WaitForSignature(ctx, testSignature(t), rpc.CommitmentConfirmed)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestWaitForSignatureTimeout(t *testing.T) {
	c := connect(t, fakeNode(t, nil, false))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := c.WaitForSignature(ctx, testSignature(t), rpc.CommitmentFinalized)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestConcurrentWaiters(t *testing.T) {
	srv := fakeNode(t, func(subID uint64) any {
		return notification(subID, map[string]any{"err": nil})
	}, false)
	c := connect(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		sig := testSignature(t)
		go func() { errs <- c.WaitForSignature(ctx, sig, rpc.CommitmentConfirmed) }()
	}
	for i := 0; i < 5; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestWaitAfterServerCloses(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	c := connect(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.WaitForSignature(ctx, testSignature(t), rpc.CommitmentConfirmed)
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSignatureResultFailed(t *testing.T) {
	assert.False(t, SignatureResult{}.Failed())
	assert.False(t, SignatureResult{Err: json.RawMessage("null")}.Failed())
	assert.True(t, SignatureResult{Err: json.RawMessage(`{"x":1}`)}.Failed())
}
