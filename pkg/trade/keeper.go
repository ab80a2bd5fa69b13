package trade

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"parcl-v3-client/pkg/parcl"
)

// UnhealthyLister reports margin accounts eligible for liquidation.
// *parcl.Client satisfies it.
type UnhealthyLister interface {
	GetUnhealthyMarginAccounts(ctx context.Context) ([]solana.PublicKey, error)
}

type KeeperConfig struct {
	Interval time.Duration
	// LiquidatorAccount receives the liquidation proceeds.
	LiquidatorAccount parcl.MarginAccountIdentifier
	// MaxPerTick caps liquidations per poll; zero means no cap.
	MaxPerTick int
}

// LiquidationKeeper polls for unhealthy margin accounts and liquidates them
// one at a time through an Executor.
type LiquidationKeeper struct {
	cfg    KeeperConfig
	lister UnhealthyLister
	exec   *Executor
	log    *logrus.Entry
}

func NewLiquidationKeeper(cfg KeeperConfig, lister UnhealthyLister, exec *Executor) *LiquidationKeeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	return &LiquidationKeeper{
		cfg:    cfg,
		lister: lister,
		exec:   exec,
		log:    exec.log.WithField("component", "keeper"),
	}
}

// Start polls until ctx is done.
func (k *LiquidationKeeper) Start(ctx context.Context) {
	k.log.WithField("interval", k.cfg.Interval).Info("starting liquidation keeper")
	ticker := time.NewTicker(k.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.log.Info("stopping liquidation keeper")
			return
		case <-ticker.C:
			k.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single poll and returns the results of the
// liquidations that went through. Individual failures are logged and
// skipped.
func (k *LiquidationKeeper) RunOnce(ctx context.Context) []*Result {
	targets, err := k.lister.GetUnhealthyMarginAccounts(ctx)
	if err != nil {
		k.log.WithError(err).Warn("list unhealthy margin accounts")
		return nil
	}
	if len(targets) == 0 {
		k.log.Debug("no unhealthy margin accounts")
		return nil
	}

	var results []*Result
	for i, target := range targets {
		if k.cfg.MaxPerTick > 0 && i >= k.cfg.MaxPerTick {
			break
		}
		if ctx.Err() != nil {
			break
		}
		res, err := k.exec.Liquidate(ctx, target, k.cfg.LiquidatorAccount)
		if err != nil {
			k.log.WithError(err).WithField("target", target.String()).Warn("liquidation failed")
			continue
		}
		results = append(results, res)
	}
	return results
}
