package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"parcl-v3-client/internal/config"
	"parcl-v3-client/internal/logger"
	"parcl-v3-client/pkg/ws"
)

// Waits for one transaction signature to reach the configured commitment.
func main() {
	if len(os.Args) != 2 {
		logrus.Fatalf("usage: %s <signature>", os.Args[0])
	}
	sig, err := solana.SignatureFromBase58(os.Args[1])
	if err != nil {
		logrus.Fatalf("Invalid signature: %v", err)
	}

	cfg, err := config.LoadConfig("config")
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log, err := logger.Init(logger.Config{Level: cfg.App.LogLevel})
	if err != nil {
		logrus.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsClient := ws.NewSignatureWSClient(cfg.Solana.WSURL, ws.WithLogger(log.WithField("component", "signature_ws")))
	if err := wsClient.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer wsClient.Close()

	commitment := cfg.Solana.CommitmentType()
	log.WithFields(logrus.Fields{"signature": sig.String(), "commitment": commitment}).Info("waiting, Ctrl+C to exit")

	if err := wsClient.WaitForSignature(ctx, sig, commitment); err != nil {
		log.Fatalf("Wait failed: %v", err)
	}
	log.Info("signature reached commitment")
}
