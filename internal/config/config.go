package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CascadeMode controls how notebook deletion treats the notes inside it.
type CascadeMode string

const (
	// CascadeFailFast deletes a notebook and all its notes in one transaction.
	CascadeFailFast CascadeMode = "fail_fast"
	// CascadeBestEffort deletes notes one by one and removes the notebook
	// even when some note deletions fail.
	CascadeBestEffort CascadeMode = "best_effort"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string
	JWTTTL    time.Duration

	CascadeMode CascadeMode

	// S3-compatible blob store for embedded images.
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		LogLevel:             getenv("LOG_LEVEL", "info"),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")
	ttl, err := time.ParseDuration(getenv("JWT_TTL", "168h"))
	if err != nil {
		panic("invalid JWT_TTL: " + err.Error())
	}
	cfg.JWTTTL = ttl

	switch m := CascadeMode(getenv("CASCADE_MODE", string(CascadeFailFast))); m {
	case CascadeFailFast, CascadeBestEffort:
		cfg.CascadeMode = m
	default:
		panic("invalid CASCADE_MODE: " + string(m))
	}

	cfg.S3Endpoint = getenv("S3_ENDPOINT", "")
	cfg.S3Region = getenv("S3_REGION", "us-east-1")
	cfg.S3Bucket = getenv("S3_BUCKET", "panne")
	cfg.S3AccessKey = getenv("S3_ACCESS_KEY", "")
	cfg.S3SecretKey = getenv("S3_SECRET_KEY", "")
	cfg.S3PublicBaseURL = getenv("S3_PUBLIC_BASE_URL", "")

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
