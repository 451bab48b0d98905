// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Jubii100/Growbal-sub000/pkg/engine"
	"github.com/joho/godotenv"
)

// Config is everything the serve command needs.
type Config struct {
	Port      string
	DBConnStr string

	// LLMProvider selects the text-generation provider: "openai",
	// "anthropic", or "" to run without a model (template phrasing
	// only).
	LLMProvider string
	LLMBaseURL  string
	LLMModel    string
	LLMAPIKey   string

	Engine engine.Config
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DBConnStr:   os.Getenv("DATABASE_URL"),
		LLMProvider: os.Getenv("LLM_PROVIDER"),
		LLMBaseURL:  os.Getenv("LLM_BASE_URL"),
		LLMModel:    os.Getenv("LLM_MODEL"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		Engine:      engine.DefaultConfig(),
	}
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = connStrFromParts()
	}

	if v, ok := getFloat("INTAKE_SKIP_SCORE"); ok {
		cfg.Engine.IntakeSkipScore = v
	}
	if v, ok := getDuration("RESEARCH_COOLDOWN"); ok {
		cfg.Engine.ResearchCooldown = v
	}
	if v, ok := getInt("RESEARCH_PENDING_THRESHOLD"); ok {
		cfg.Engine.ResearchPendingThreshold = v
	}
	if v, ok := getFloat("CONFIDENCE_THRESHOLD"); ok {
		cfg.Engine.ConfidenceThreshold = v
	}
	if v, ok := getInt("ATTEMPT_CAP"); ok {
		cfg.Engine.AttemptCap = v
	}
	if v, ok := getInt("VALIDATION_FAILURE_CAP"); ok {
		cfg.Engine.ValidationFailureCap = v
	}
	return cfg
}

// connStrFromParts assembles a connection string from the discrete DB_*
// variables used by the migrate tooling.
func connStrFromParts() string {
	user := os.Getenv("DB_USERNAME")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if user == "" || host == "" || name == "" {
		return ""
	}
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

func getInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func getDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	return d, err == nil
}
