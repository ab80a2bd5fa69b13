// Package trade runs Parcl v3 operations end to end: it fetches the unsigned
// transaction from the API and a recent blockhash from the node in parallel,
// signs, submits and optionally waits for confirmation.
package trade

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"parcl-v3-client/pkg/parcl"
)

// RPC is the node surface the executor needs. *rpc.Client satisfies it.
type RPC interface {
	parcl.BlockhashSource
	parcl.TransactionSender
}

// Confirmer waits for a submitted signature to reach a commitment level.
type Confirmer interface {
	WaitForSignature(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error
}

// Fetch obtains an unsigned transaction from the API.
type Fetch func(ctx context.Context) (*parcl.TransactionInfo, error)

type Options struct {
	// Commitment is used for the blockhash fetch, preflight and confirmation.
	// Defaults to confirmed.
	Commitment    rpc.CommitmentType
	SkipPreflight bool
	// MaxRetries is passed through to the node's own rebroadcast logic.
	MaxRetries *uint
	// Confirmer, when set, makes Execute block until the signature reaches
	// Commitment.
	Confirmer      Confirmer
	ConfirmTimeout time.Duration
	Logger         *logrus.Entry
}

type Executor struct {
	api    *parcl.Client
	rpc    RPC
	signer solana.PrivateKey
	owner  solana.PublicKey
	opts   Options
	log    *logrus.Entry
}

// Result describes one executed operation.
type Result struct {
	Op        string
	Signature solana.Signature
	Blockhash parcl.LatestBlockhash
	Info      *parcl.TransactionInfo
	Confirmed bool
}

func NewExecutor(api *parcl.Client, node RPC, signer solana.PrivateKey, opts Options) *Executor {
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = logrus.WithField("component", "trade")
	}
	return &Executor{
		api:    api,
		rpc:    node,
		signer: signer,
		owner:  signer.PublicKey(),
		opts:   opts,
		log:    log,
	}
}

// Owner is the signer's public key, used as owner on every request.
func (e *Executor) Owner() solana.PublicKey { return e.owner }

// Execute runs fetch and the blockhash lookup concurrently. If either fails
// nothing is signed or sent and that error is returned.
func (e *Executor) Execute(ctx context.Context, op string, fetch Fetch) (*Result, error) {
	log := e.log.WithField("op", op)

	var (
		info *parcl.TransactionInfo
		bh   parcl.LatestBlockhash
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = fetch(gctx)
		return errors.Wrapf(err, "%s: fetch transaction", op)
	})
	g.Go(func() error {
		var err error
		bh, err = parcl.FetchLatestBlockhash(gctx, e.rpc, e.opts.Commitment)
		return errors.Wrapf(err, "%s: fetch blockhash", op)
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("aborted before signing")
		return nil, err
	}

	tx, err := parcl.AssembleTransaction(info.Transaction, bh.Blockhash, e.signer)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: assemble", op)
	}

	sig, err := parcl.SubmitTransaction(ctx, e.rpc, tx, rpc.TransactionOpts{
		SkipPreflight:       e.opts.SkipPreflight,
		PreflightCommitment: e.opts.Commitment,
		MaxRetries:          e.opts.MaxRetries,
	})
	if err != nil {
		log.WithError(err).Warn("submission failed")
		return nil, errors.Wrapf(err, "%s: submit", op)
	}
	log.WithFields(logrus.Fields{
		"signature":               sig.String(),
		"total_required_lamports": info.TotalRequiredLamports,
	}).Info("transaction submitted")

	res := &Result{Op: op, Signature: sig, Blockhash: bh, Info: info}
	if e.opts.Confirmer == nil {
		return res, nil
	}

	cctx, cancel := context.WithTimeout(ctx, e.opts.ConfirmTimeout)
	defer cancel()
	if err := e.opts.Confirmer.WaitForSignature(cctx, sig, e.opts.Commitment); err != nil {
		return res, errors.Wrapf(err, "%s: confirm %s", op, sig)
	}
	res.Confirmed = true
	log.WithField("signature", sig.String()).Info("transaction confirmed")
	return res, nil
}

func (e *Executor) ModifyPosition(ctx context.Context, account parcl.MarginAccountIdentifier, market parcl.MarketID, sizeDelta int64, slippage parcl.SlippageSetting) (*Result, error) {
	return e.Execute(ctx, "modify_position", func(ctx context.Context) (*parcl.TransactionInfo, error) {
		return e.api.GetModifyPositionTransaction(ctx, e.owner, account, market, sizeDelta, slippage)
	})
}

func (e *Executor) ClosePosition(ctx context.Context, account parcl.MarginAccountIdentifier, market parcl.MarketID, slippage parcl.SlippageSetting) (*Result, error) {
	return e.Execute(ctx, "close_position", func(ctx context.Context) (*parcl.TransactionInfo, error) {
		return e.api.GetClosePositionTransaction(ctx, e.owner, account, market, slippage)
	})
}

func (e *Executor) DepositMargin(ctx context.Context, account parcl.MarginAccountIdentifier, margin uint64) (*Result, error) {
	return e.Execute(ctx, "deposit_margin", func(ctx context.Context) (*parcl.TransactionInfo, error) {
		return e.api.GetDepositMarginTransaction(ctx, e.owner, account, margin)
	})
}

func (e *Executor) WithdrawMargin(ctx context.Context, account parcl.MarginAccountIdentifier, margin uint64, opts parcl.WithdrawOptions) (*Result, error) {
	return e.Execute(ctx, "withdraw_margin", func(ctx context.Context) (*parcl.TransactionInfo, error) {
		return e.api.GetWithdrawMarginTransaction(ctx, e.owner, account, margin, opts)
	})
}

// CreateMarginAccount also returns the API response so callers learn the
// new account's id and address.
func (e *Executor) CreateMarginAccount(ctx context.Context, id *parcl.MarginAccountID) (*Result, *parcl.CreateMarginAccountTransactionResponse, error) {
	var created *parcl.CreateMarginAccountTransactionResponse
	res, err := e.Execute(ctx, "create_margin_account", func(ctx context.Context) (*parcl.TransactionInfo, error) {
		resp, err := e.api.GetCreateMarginAccountTransaction(ctx, e.owner, id)
		if err != nil {
			return nil, err
		}
		created = resp
		return &parcl.TransactionInfo{
			Transaction:             resp.Transaction,
			TotalRequiredLamports:   resp.TotalRequiredLamports,
			RequiredComputeLamports: resp.RequiredComputeLamports,
			RequiredRentLamports:    resp.RequiredRentLamports,
		}, nil
	})
	if err != nil {
		return res, nil, err
	}
	return res, created, nil
}

func (e *Executor) CloseMarginAccount(ctx context.Context, account parcl.MarginAccountIdentifier) (*Result, error) {
	return e.Execute(ctx, "close_margin_account", func(ctx context.Context) (*parcl.TransactionInfo, error) {
		return e.api.GetCloseMarginAccountTransaction(ctx, e.owner, account)
	})
}

// Liquidate liquidates target into the signer's liquidatorAccount.
func (e *Executor) Liquidate(ctx context.Context, target solana.PublicKey, liquidatorAccount parcl.MarginAccountIdentifier) (*Result, error) {
	return e.Execute(ctx, "liquidate", func(ctx context.Context) (*parcl.TransactionInfo, error) {
		return e.api.GetLiquidateTransaction(ctx, target, e.owner, liquidatorAccount)
	})
}
