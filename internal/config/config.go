package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Port          string
	DataSourceURL string // HTTP check-in service; takes precedence over DBPath
	SubjectParam  string // candidate or screen_name
	DBPath        string // read-only SQLite export
	JWTSecret     string
	SessionTTL    time.Duration
	TopK          int // markers rendered on the map
	MaxZoom       int
	IconBase      string
	FetchTimeout  time.Duration
	RateLimit     int    // requests per minute per IP
	RegionsFile   string // YAML region definitions; built-in regions when empty
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", ":8080"),
		DataSourceURL: os.Getenv("DATA_SOURCE_URL"),
		SubjectParam:  getEnv("SUBJECT_PARAM", "candidate"),
		DBPath:        os.Getenv("DB_PATH"),
		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		SessionTTL:    getDuration("SESSION_TTL", 30*time.Minute),
		TopK:          getInt("TOP_K", 30),
		MaxZoom:       getInt("MAX_ZOOM", 17),
		IconBase:      getEnv("ICON_BASE", "/static/profileviewer/images/map_icons"),
		FetchTimeout:  getDuration("FETCH_TIMEOUT", 30*time.Second),
		RateLimit:     getLimit("RATE_LIMIT", 120),
		RegionsFile:   os.Getenv("REGIONS_FILE"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// getLimit is getInt where 0 disables the limit
func getLimit(key string, fallback int) int {
	if os.Getenv(key) == "0" {
		return 0
	}
	return getInt(key, fallback)
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
