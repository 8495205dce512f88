package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// mensajes viejos de salas que ya no están monitoreadas
	_, _ = pool.Exec(cctx, `
DELETE FROM archived_messages
WHERE archived_at < now() - INTERVAL '30 days'
  AND room_id NOT IN (SELECT room_id FROM monitored_rooms);`)

	// registros de media huérfanos (sin mensaje que los respalde)
	_, _ = pool.Exec(cctx, `
DELETE FROM archived_media
WHERE event_id NOT IN (SELECT event_id FROM archived_messages);`)

	return "ok", nil
}

func main() { lambda.Start(handler) }
