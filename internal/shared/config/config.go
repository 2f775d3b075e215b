package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	Env                string
	APIBaseURL         string
	APITimeout         time.Duration
	APIRateLimit       float64
	APIRateBurst       int
	RateLimit          float64
	RateBurst          int
	ExportRateLimit    float64
	ExportRateBurst    int
	DatabaseURL        string
	SessionSecret      string
	SessionTTL         time.Duration
	SessionSweep       time.Duration
	CookieSecure       bool
	CacheStaleTime     time.Duration
	EditorIdleTTL      time.Duration
	ReviewStateTTL     time.Duration
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	secret := os.Getenv("SESSION_SECRET")

	if env == "production" && secret == "" {
		log.Printf("SESSION_SECRET is required in production")
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:                env,
		APIBaseURL:         strings.TrimRight(getEnv("TAILOR_API_URL", "http://localhost:8000/api/v1"), "/"),
		APITimeout:         getDuration("TAILOR_API_TIMEOUT", 30*time.Second),
		APIRateLimit:       getFloat("TAILOR_API_RATE", 20),
		APIRateBurst:       getInt("TAILOR_API_BURST", 40),
		RateLimit:          getFloat("RATE_LIMIT_RPS", 10),
		RateBurst:          getInt("RATE_LIMIT_BURST", 30),
		ExportRateLimit:    getFloat("EXPORT_RATE_LIMIT_RPS", 0.5),
		ExportRateBurst:    getInt("EXPORT_RATE_LIMIT_BURST", 5),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SessionSecret:      secret,
		SessionTTL:         getDuration("SESSION_TTL", 7*24*time.Hour),
		SessionSweep:       getDuration("SESSION_SWEEP_INTERVAL", time.Hour),
		CookieSecure:       env == "production" || env == "staging",
		CacheStaleTime:     getDuration("CACHE_STALE_TIME", 30*time.Second),
		EditorIdleTTL:      getDuration("EDITOR_IDLE_TTL", 2*time.Hour),
		ReviewStateTTL:     getDuration("REVIEW_STATE_TTL", 6*time.Hour),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", "exports/"),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", "http://localhost:5173/"),
	}
}

// IsDevLike reports whether the environment allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
