package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"codearena/internal/game"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string
	ContentPath    string

	RewardBaseURL  string
	RewardAPIToken string
	RewardTimeout  time.Duration

	AuthHMACSecret      string
	AllowHeaderIdentity bool
	CORSOrigins         []string

	SessionIdleTimeout time.Duration
	RateLimitPerMinute int

	MistakePenalty float64
	HintPenalty    float64
	PassThreshold  float64
	MaxHints       int
	HintReveal     time.Duration
	MismatchDelay  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	defaults := game.DefaultRules()

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./codearena.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		ContentPath:    getEnv("CONTENT_PATH", "./content"),

		RewardBaseURL:  getEnv("REWARD_BASE_URL", ""),
		RewardAPIToken: getEnv("REWARD_API_TOKEN", ""),
		RewardTimeout:  getEnvDuration("REWARD_TIMEOUT", 10*time.Second),

		AuthHMACSecret:      getEnv("AUTH_HMAC_SECRET", ""),
		AllowHeaderIdentity: getEnvBool("ALLOW_HEADER_IDENTITY", false),
		CORSOrigins:         getEnvList("CORS_ORIGINS", "http://localhost:3000"),

		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		MistakePenalty: getEnvFloat("SCORING_MISTAKE_PENALTY", defaults.MistakePenalty),
		HintPenalty:    getEnvFloat("SCORING_HINT_PENALTY", defaults.HintPenalty),
		PassThreshold:  getEnvFloat("SCORING_PASS_THRESHOLD", defaults.PassThreshold),
		MaxHints:       getEnvInt("SCORING_MAX_HINTS", defaults.MaxHints),
		HintReveal:     getEnvDuration("HINT_REVEAL_SECONDS", time.Duration(defaults.HintSeconds)*time.Second),
		MismatchDelay:  getEnvDuration("MISMATCH_DELAY", time.Second),
	}
}

// Rules converts the scoring settings into game rules
func (c *Config) Rules() game.Rules {
	return game.Rules{
		MaxHints:       c.MaxHints,
		HintSeconds:    int(c.HintReveal / time.Second),
		MistakePenalty: c.MistakePenalty,
		HintPenalty:    c.HintPenalty,
		PassThreshold:  c.PassThreshold,
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go duration strings ("90s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
