package parcl

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/pkg/errors"
)

// Submission stages.
const (
	StageSendTransaction    = "sendTransaction"
	StageGetLatestBlockhash = "getLatestBlockhash"
)

// TransactionSender is satisfied by *rpc.Client.
type TransactionSender interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// BlockhashSource is satisfied by *rpc.Client.
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

// SubmitTransaction sends a signed transaction and returns its signature.
// It does not retry; an expired blockhash surfaces as a rejection for which
// IsBlockhashNotFound is true.
func SubmitTransaction(ctx context.Context, sender TransactionSender, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	if tx == nil {
		return solana.Signature{}, errors.New("submit: nil transaction")
	}
	sig, err := sender.SendTransactionWithOpts(ctx, tx, opts)
	if err != nil {
		return solana.Signature{}, classifyRPCError(StageSendTransaction, err)
	}
	return sig, nil
}

// LatestBlockhash is a recent blockhash and the last block height at which
// transactions referencing it are accepted.
type LatestBlockhash struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

func FetchLatestBlockhash(ctx context.Context, source BlockhashSource, commitment rpc.CommitmentType) (LatestBlockhash, error) {
	res, err := source.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return LatestBlockhash{}, classifyRPCError(StageGetLatestBlockhash, err)
	}
	if res == nil || res.Value == nil {
		return LatestBlockhash{}, &SubmissionError{
			Stage: StageGetLatestBlockhash,
			Err:   errors.New("empty getLatestBlockhash result"),
		}
	}
	return LatestBlockhash{
		Blockhash:            res.Value.Blockhash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
	}, nil
}

func classifyRPCError(stage string, err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &SubmissionError{
			Stage:    stage,
			Rejected: true,
			Code:     rpcErr.Code,
			Message:  rpcErr.Message,
			Data:     rpcErr.Data,
			Err:      err,
		}
	}
	return &SubmissionError{Stage: stage, Err: &TransportError{Op: stage, Err: err}}
}
