package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	MongoURI string
	MongoDB  string

	AuthSecret string
	TokenTTL   time.Duration

	OpenAIKey     string
	OpenAIBaseURL string // OpenAI-compatible endpoints
	OpenAIModel   string
	GradeTimeout  time.Duration

	CORSOrigins []string
}

// FromEnv loads configuration from the environment. A .env file in the
// working directory is read first if present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		PublicURL:     os.Getenv("PUBLIC_URL"),
		MongoURI:      envOr("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDB:       envOr("DATABASE_NAME", "lms_db"),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:      envDuration("TOKEN_TTL", 8*time.Hour),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),
		GradeTimeout:  envDuration("GRADE_TIMEOUT", 20*time.Second),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173,http://127.0.0.1:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
