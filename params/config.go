package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MemoryDB selects the in-memory store instead of pebble.
const MemoryDB = "memory"

type API struct {
	Addr           string
	AllowedOrigins []string
	MetricsEnabled bool
}

type WebSocket struct {
	ReadBuffer  int
	WriteBuffer int
	// WriteTimeout bounds a single push to one connection. Reads have no
	// deadline: a connection stays registered until its peer goes away.
	WriteTimeout time.Duration
}

type Storage struct {
	// Path of the pebble directory, or MemoryDB.
	Path string
}

type Config struct {
	API       API
	WebSocket WebSocket
	Storage   Storage
	LogFile   string
}

func Default() Config {
	return Config{
		API: API{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
			MetricsEnabled: true,
		},
		WebSocket: WebSocket{
			ReadBuffer:   1024,
			WriteBuffer:  1024,
			WriteTimeout: 10 * time.Second,
		},
		Storage: Storage{Path: "data/gullylink"},
		LogFile: "data/gullylink.log",
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	cfg.Storage.Path = getEnv("DB_PATH", cfg.Storage.Path)
	if logFile, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.LogFile = logFile
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = splitList(origins)
	}
	if metrics := os.Getenv("METRICS_ENABLED"); metrics != "" {
		cfg.API.MetricsEnabled = metrics == "true"
	}

	if wt := os.Getenv("WS_WRITE_TIMEOUT_MS"); wt != "" {
		if ms, err := strconv.Atoi(wt); err == nil {
			cfg.WebSocket.WriteTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if rb := os.Getenv("WS_READ_BUFFER"); rb != "" {
		if n, err := strconv.Atoi(rb); err == nil && n > 0 {
			cfg.WebSocket.ReadBuffer = n
		}
	}
	if wb := os.Getenv("WS_WRITE_BUFFER"); wb != "" {
		if n, err := strconv.Atoi(wb); err == nil && n > 0 {
			cfg.WebSocket.WriteBuffer = n
		}
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
