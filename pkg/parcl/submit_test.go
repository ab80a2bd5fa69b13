package parcl

import (
	"context"
	"net"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct {
	sig       solana.Signature
	sendErr   error
	blockhash *rpc.GetLatestBlockhashResult
	hashErr   error
	sent      int
}

func (s *stubNode) SendTransactionWithOpts(_ context.Context, _ *solana.Transaction, _ rpc.TransactionOpts) (solana.Signature, error) {
	s.sent++
	return s.sig, s.sendErr
}

func (s *stubNode) GetLatestBlockhash(_ context.Context, _ rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return s.blockhash, s.hashErr
}

func signedTx(t *testing.T) *solana.Transaction {
	t.Helper()
	key := newKey(t)
	tx, err := AssembleTransaction(unsignedBlob(t, zeroHash, key.PublicKey()), zeroHash, key)
	require.NoError(t, err)
	return tx
}

func TestSubmitTransaction(t *testing.T) {
	tx := signedTx(t)

	t.Run("success", func(t *testing.T) {
		node := &stubNode{sig: tx.Signatures[0]}
		sig, err := SubmitTransaction(context.Background(), node, tx, rpc.TransactionOpts{})
		require.NoError(t, err)
		assert.Equal(t, tx.Signatures[0], sig)
		assert.Equal(t, 1, node.sent)
	})

	t.Run("blockhash not found is a rejection", func(t *testing.T) {
		node := &stubNode{sendErr: &jsonrpc.RPCError{
			Code:    -32002,
			Message: "Transaction simulation failed: Blockhash not found",
		}}
		_, err := SubmitTransaction(context.Background(), node, tx, rpc.TransactionOpts{})
		require.Error(t, err)

		var subErr *SubmissionError
		require.True(t, errors.As(err, &subErr))
		assert.True(t, subErr.Rejected)
		assert.Equal(t, -32002, subErr.Code)
		assert.True(t, IsBlockhashNotFound(err))
		assert.True(t, IsRejected(err))
		assert.False(t, IsTransport(err))
	})

	t.Run("blockhash not found in data", func(t *testing.T) {
		node := &stubNode{sendErr: &jsonrpc.RPCError{
			Code:    -32002,
			Message: "Transaction simulation failed",
			Data:    map[string]any{"err": "BlockhashNotFound"},
		}}
		_, err := SubmitTransaction(context.Background(), node, tx, rpc.TransactionOpts{})
		assert.True(t, IsBlockhashNotFound(err))
	})

	t.Run("other rejection", func(t *testing.T) {
		node := &stubNode{sendErr: &jsonrpc.RPCError{Code: -32002, Message: "insufficient funds for fee"}}
		_, err := SubmitTransaction(context.Background(), node, tx, rpc.TransactionOpts{})
		assert.True(t, IsRejected(err))
		assert.False(t, IsBlockhashNotFound(err))
	})

	t.Run("network failure is transport", func(t *testing.T) {
		node := &stubNode{sendErr: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}
		_, err := SubmitTransaction(context.Background(), node, tx, rpc.TransactionOpts{})

		var subErr *SubmissionError
		require.True(t, errors.As(err, &subErr))
		assert.False(t, subErr.Rejected)
		assert.True(t, IsTransport(err))
		assert.False(t, IsBlockhashNotFound(err))
	})

	t.Run("nil transaction", func(t *testing.T) {
		node := &stubNode{}
		_, err := SubmitTransaction(context.Background(), node, nil, rpc.TransactionOpts{})
		assert.Error(t, err)
		assert.Zero(t, node.sent)
	})
}

func TestFetchLatestBlockhash(t *testing.T) {
	hash := solana.Hash(newKey(t).PublicKey())

	node := &stubNode{blockhash: &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: hash, LastValidBlockHeight: 150},
	}}
	got, err := FetchLatestBlockhash(context.Background(), node, rpc.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, hash, got.Blockhash)
	assert.Equal(t, uint64(150), got.LastValidBlockHeight)

	_, err = FetchLatestBlockhash(context.Background(), &stubNode{hashErr: errors.New("timeout")}, rpc.CommitmentFinalized)
	assert.True(t, IsTransport(err))

	_, err = FetchLatestBlockhash(context.Background(), &stubNode{blockhash: &rpc.GetLatestBlockhashResult{}}, rpc.CommitmentFinalized)
	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, StageGetLatestBlockhash, subErr.Stage)
}
