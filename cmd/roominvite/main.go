// roominvite fuerza al bot a entrar a salas usando la cuenta de admin.
// Con argumento entra a esa sala; sin argumentos, a todas las monitoreadas
// con auto_join. Sale con 1 si alguna falló.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jose-valero/matrix-archiver/internal/adapters/matrix"
	"github.com/jose-valero/matrix-archiver/internal/app/service"
	"github.com/jose-valero/matrix-archiver/internal/infra/config"
	"github.com/jose-valero/matrix-archiver/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags)

	cfg := config.Load()
	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		log.Fatal("faltante MATRIX_ADMIN_USERNAME / MATRIX_ADMIN_PASSWORD")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mc := matrix.New(cfg.Matrix.HomeserverURL)
	botID := matrix.QualifyUserID(cfg.Matrix.Username, cfg.Matrix.ServerName)
	esc := service.NewEscalationService(mc, service.AdminCreds{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	}, cfg.Matrix.ServerName, botID)

	rooms := targetRooms(ctx, cfg)
	if len(rooms) == 0 {
		log.Println("nada para hacer: sin salas objetivo")
		return
	}

	failed := 0
	for _, roomID := range rooms {
		if err := esc.Escalate(ctx, roomID); err != nil {
			log.Printf("❌ %s: %v", roomID, err)
			failed++
			continue
		}
		log.Printf("✅ %s", roomID)
	}
	if failed > 0 {
		log.Printf("terminado con %d/%d fallas", failed, len(rooms))
		os.Exit(1)
	}
}

func targetRooms(ctx context.Context, cfg config.Config) []string {
	if len(os.Args) > 1 {
		return os.Args[1:]
	}

	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	monitored, err := storage.NewRoomsRepo(db).ListEnabled(ctx)
	if err != nil {
		log.Fatal(err)
	}
	var out []string
	for roomID, m := range monitored {
		if m.AutoJoin {
			out = append(out, roomID)
		}
	}
	return out
}
