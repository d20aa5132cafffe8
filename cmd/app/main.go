package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"pos-terminal/internal/adapters/cli"
	"pos-terminal/internal/adapters/repl"
	"pos-terminal/internal/app"
	"pos-terminal/internal/config"
	"pos-terminal/internal/db"
	"pos-terminal/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Console output belongs to the operator; only warnings go to stderr.
	logger, err := logging.New("warn", "console")
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("Unable to connect to database", zap.Error(err))
	}
	defer pool.Close()

	override, _, _ := cfg.RateOverride()
	svc := app.NewAppService(ctx, app.PostgresServices(pool), app.Options{
		Logger:             logger,
		SessionTTL:         cfg.SessionTTL,
		DefaultTaxPercent:  cfg.DefaultTaxPercent,
		DefaultIGTFPercent: cfg.DefaultIGTFPercent,
		RateOverride:       override,
	})

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			if errors.Is(err, cli.ErrUsage) {
				os.Exit(2)
			}
			os.Exit(1)
		}
		return
	}

	if err := repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		logger.Fatal("terminal", zap.Error(err))
	}
}
