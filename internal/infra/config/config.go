package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type MatrixConfig struct {
	HomeserverURL string `yaml:"homeserver_url"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	DeviceName    string `yaml:"device_name"`
	ServerName    string `yaml:"server_name"` // dominio para calificar usernames pelados
}

type AdminConfig struct {
	// opcionales: sin esto la escalación queda deshabilitada, no es error
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type SupabaseConfig struct {
	URL            string `yaml:"url"`
	ServiceRoleKey string `yaml:"service_role_key"`
	StorageBucket  string `yaml:"storage_bucket"`
}

type RoomConfig struct {
	RoomID   string `yaml:"room_id"`
	Enabled  bool   `yaml:"enabled"`
	Backfill bool   `yaml:"backfill"`
}

type ProcessingConfig struct {
	MaxFileSize            string `yaml:"max_file_size"` // "100MB" etc
	SyncTimeoutSeconds     int    `yaml:"sync_timeout_seconds"`
	RefreshIntervalMinutes int    `yaml:"refresh_interval_minutes"`
}

type Config struct {
	DatabaseURL string           `yaml:"database_url"`
	Matrix      MatrixConfig     `yaml:"matrix"`
	Admin       AdminConfig      `yaml:"admin"`
	Supabase    SupabaseConfig   `yaml:"supabase"`
	Rooms       []RoomConfig     `yaml:"rooms"`
	Processing  ProcessingConfig `yaml:"processing"`
}

// Load lee el YAML (si hay) y pisa con las envs. Lo mínimo indispensable
// faltante es fatal acá mismo; lo opcional queda vacío y el caller decide.
func Load() Config {
	var cfg Config
	if path := findConfigFile(); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("leyendo config %s: %v", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			log.Fatalf("parseando config %s: %v", path, err)
		}
		log.Printf("config cargada de %s", path)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.DatabaseURL == "" {
		log.Fatalf("faltante DATABASE_URL (o database_url en el yaml)")
	}
	if cfg.Matrix.Username == "" {
		log.Fatalf("faltante MATRIX_USERNAME")
	}
	return cfg
}

func findConfigFile() string {
	if p := os.Getenv("ARCHIVER_CONFIG"); p != "" {
		return p
	}
	for _, p := range []string{"./archiver.yaml", "./config/archiver.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.DatabaseURL, "DATABASE_URL")
	override(&cfg.Matrix.HomeserverURL, "MATRIX_HOMESERVER_URL")
	override(&cfg.Matrix.Username, "MATRIX_USERNAME")
	override(&cfg.Matrix.Password, "MATRIX_PASSWORD")
	override(&cfg.Matrix.DeviceName, "MATRIX_DEVICE_NAME")
	override(&cfg.Matrix.ServerName, "MATRIX_SERVER_NAME")
	override(&cfg.Admin.Username, "MATRIX_ADMIN_USERNAME")
	override(&cfg.Admin.Password, "MATRIX_ADMIN_PASSWORD")
	override(&cfg.Supabase.URL, "SUPABASE_URL")
	override(&cfg.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	override(&cfg.Supabase.StorageBucket, "SUPABASE_STORAGE_BUCKET")
	override(&cfg.Processing.MaxFileSize, "ARCHIVER_MAX_FILE_SIZE")
}

func applyDefaults(cfg *Config) {
	if cfg.Matrix.HomeserverURL == "" {
		cfg.Matrix.HomeserverURL = "http://localhost:8008"
	}
	if cfg.Matrix.DeviceName == "" {
		cfg.Matrix.DeviceName = "matrix-archiver"
	}
	if cfg.Matrix.ServerName == "" {
		// del username completo, si vino con dominio
		if i := strings.IndexByte(cfg.Matrix.Username, ':'); i >= 0 {
			cfg.Matrix.ServerName = cfg.Matrix.Username[i+1:]
		}
	}
	if cfg.Supabase.StorageBucket == "" {
		cfg.Supabase.StorageBucket = "matrix-media"
	}
	if cfg.Processing.MaxFileSize == "" {
		cfg.Processing.MaxFileSize = "100MB"
	}
	if cfg.Processing.SyncTimeoutSeconds <= 0 {
		cfg.Processing.SyncTimeoutSeconds = 30
	}
	if cfg.Processing.RefreshIntervalMinutes <= 0 {
		cfg.Processing.RefreshIntervalMinutes = 5
	}
}

func (p ProcessingConfig) SyncTimeout() time.Duration {
	return time.Duration(p.SyncTimeoutSeconds) * time.Second
}

func (p ProcessingConfig) RefreshInterval() time.Duration {
	return time.Duration(p.RefreshIntervalMinutes) * time.Minute
}

// MaxFileSizeBytes parsea "100MB" / "512KB" / "1GB" / bytes pelados.
func (p ProcessingConfig) MaxFileSizeBytes() (int64, error) {
	return ParseFileSize(p.MaxFileSize)
}

func ParseFileSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "KB"):
		mult, s = 1<<10, s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		mult, s = 1<<20, s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		mult, s = 1<<30, s[:len(s)-2]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tamaño inválido %q: %w", s, err)
	}
	return n * mult, nil
}
