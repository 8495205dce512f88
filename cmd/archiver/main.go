package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jose-valero/matrix-archiver/internal/adapters/matrix"
	"github.com/jose-valero/matrix-archiver/internal/adapters/supastore"
	"github.com/jose-valero/matrix-archiver/internal/app/service"
	"github.com/jose-valero/matrix-archiver/internal/infra/config"
	"github.com/jose-valero/matrix-archiver/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()
	if cfg.Matrix.Password == "" {
		log.Fatal("faltante MATRIX_PASSWORD")
	}
	if cfg.Supabase.URL == "" || cfg.Supabase.ServiceRoleKey == "" {
		log.Fatal("faltante SUPABASE_URL / SUPABASE_SERVICE_ROLE_KEY")
	}
	maxFileSize, err := cfg.Processing.MaxFileSizeBytes()
	if err != nil {
		log.Fatalf("max_file_size: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Repos
	roomsRepo := storage.NewRoomsRepo(db)
	msgsRepo := storage.NewMessagesRepo(db)
	mediaRepo := storage.NewMediaRepo(db)

	// Matrix: un transporte compartido, sesión propia del bot
	mc := matrix.New(cfg.Matrix.HomeserverURL)
	botID := matrix.QualifyUserID(cfg.Matrix.Username, cfg.Matrix.ServerName)
	sess, err := mc.Login(ctx, botID, cfg.Matrix.Password, cfg.Matrix.DeviceName)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("✅ Conectado como %s", sess.UserID)

	// Salas declaradas en la config pasan a monitored_rooms al arrancar
	for _, r := range cfg.Rooms {
		room := storage.MonitoredRoom{
			RoomID:       r.RoomID,
			RoomName:     "Configured room",
			Enabled:      r.Enabled,
			AutoJoin:     true,
			ArchiveMedia: true,
		}
		if err := roomsRepo.Upsert(ctx, room); err != nil {
			log.Printf("⚠️ registrando sala de config %s: %v", r.RoomID, err)
		}
	}

	// Storage de objetos (Supabase)
	objects := supastore.New(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Supabase.StorageBucket)

	// Services
	var esc service.Escalator
	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		esc = service.NewEscalationService(mc, service.AdminCreds{
			Username: cfg.Admin.Username,
			Password: cfg.Admin.Password,
		}, cfg.Matrix.ServerName, sess.UserID)
	} else {
		log.Println("⚠️ sin credenciales de admin: escalación deshabilitada")
	}
	roomsSvc := service.NewRoomsService(sess, roomsRepo, esc, cfg.Processing.RefreshInterval())
	archiveSvc := service.NewArchiveService(msgsRepo, mediaRepo, sess, objects, roomsSvc, roomsRepo, maxFileSize)

	// Primera reconciliación antes de abrir el sync
	roomsSvc.Refresh(ctx)

	// Reconciliador periódico: el tick es corto, Refresh se auto-regula
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				roomsSvc.Refresh(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Backfill de las salas marcadas, en paralelo con el sync en vivo
	for _, r := range cfg.Rooms {
		if !r.Backfill || !r.Enabled {
			continue
		}
		go func(roomID string) {
			archiveSvc.Backfill(ctx, sess, roomID, 1000)
		}(r.RoomID)
	}

	// Sync loop
	go func() {
		_ = sess.SyncForever(ctx, cfg.Processing.SyncTimeout(), matrix.SyncCallbacks{
			OnInvite:  roomsSvc.HandleInvite,
			OnMessage: archiveSvc.HandleMessage,
		})
	}()
	log.Println("✅ archivador corriendo")

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
	log.Println("🛑 apagando...")
	cancel()
}
