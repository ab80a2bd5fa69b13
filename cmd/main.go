package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"parcl-v3-client/internal/config"
	"parcl-v3-client/internal/logger"
	"parcl-v3-client/pkg/parcl"
	"parcl-v3-client/pkg/trade"
	"parcl-v3-client/pkg/ws"
)

func main() {
	cfg, err := config.LoadConfig("config")
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.Init(logger.Config{
		Level:      cfg.App.LogLevel,
		OutputFile: cfg.App.LogFile,
		MaxSize:    cfg.App.LogMaxSizeMB,
		MaxBackups: cfg.App.LogMaxBackups,
		MaxAge:     cfg.App.LogMaxAgeDays,
	})
	if err != nil {
		logrus.Fatalf("Failed to init logger: %v", err)
	}

	clientCfg, err := cfg.API.ClientConfig()
	if err != nil {
		log.Fatalf("Invalid api config: %v", err)
	}
	clientCfg.Logger = log.WithField("component", "parcl")
	api := parcl.NewClient(clientCfg)

	signer, err := cfg.Solana.LoadSigner()
	if err != nil {
		log.Fatalf("Failed to load signer: %v", err)
	}
	log.WithFields(logrus.Fields{
		"api":      api.BaseURL(),
		"exchange": api.ExchangeID().String(),
		"owner":    signer.PublicKey().String(),
	}).Info("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := trade.Options{
		Commitment:    cfg.Solana.CommitmentType(),
		SkipPreflight: cfg.Trade.SkipPreflight,
		Logger:        log.WithField("component", "trade"),
	}
	if cfg.Trade.Confirm {
		wsClient := ws.NewSignatureWSClient(cfg.Solana.WSURL, ws.WithLogger(log.WithField("component", "signature_ws")))
		if err := wsClient.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect signature websocket: %v", err)
		}
		defer wsClient.Close()
		opts.Confirmer = wsClient
	}
	exec := trade.NewExecutor(api, rpc.New(cfg.Solana.RPCURL), signer, opts)

	if cfg.Keeper.Enabled {
		liquidator, err := cfg.Keeper.Liquidator()
		if err != nil {
			log.Fatalf("Invalid keeper config: %v", err)
		}
		keeper := trade.NewLiquidationKeeper(trade.KeeperConfig{
			Interval:          cfg.Keeper.Interval,
			LiquidatorAccount: liquidator,
			MaxPerTick:        cfg.Keeper.MaxPerTick,
		}, api, exec)
		keeper.Start(ctx)
		return
	}

	account, err := cfg.Trade.MarginAccount()
	if err != nil {
		log.Fatalf("Invalid trade config: %v", err)
	}
	if cfg.Trade.SizeDelta == 0 {
		log.Info("trade.size_delta is 0, nothing to do")
		return
	}

	slippage := cfg.Trade.Slippage()
	quote, err := api.GetModifyPositionQuote(ctx, exec.Owner(), account, cfg.Trade.MarketID, cfg.Trade.SizeDelta, slippage)
	if err != nil {
		log.Fatalf("Quote failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"market":     cfg.Trade.MarketID,
		"size_delta": cfg.Trade.SizeDelta,
		"fill_price": quote.FillPrice.String(),
		"fees":       quote.Fees.String(),
		"slippage":   slippage.String(),
	}).Info("quote")

	res, err := exec.ModifyPosition(ctx, account, cfg.Trade.MarketID, cfg.Trade.SizeDelta, slippage)
	if err != nil {
		if parcl.IsBlockhashNotFound(err) {
			log.Fatalf("Blockhash expired before landing, rerun to retry: %v", err)
		}
		log.Fatalf("Modify position failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"signature": res.Signature.String(),
		"confirmed": res.Confirmed,
	}).Info("done")
}
