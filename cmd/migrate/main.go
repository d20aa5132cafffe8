package main

import (
	"context"
	"log"

	"pos-terminal/internal/config"
	"pos-terminal/internal/db"
	"pos-terminal/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	for _, name := range applied {
		log.Printf("applied %s", name)
	}
}
