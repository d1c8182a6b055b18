package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	DatabaseURL              string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	DBAutoMigrate            bool
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	LinkCacheSeconds         int
	WikiAPIURL               string
	WikiUserAgent            string
	WikiTimeoutSeconds       int
	TimeLimitMinSeconds      int
	TimeLimitMaxSeconds      int
	PointsForSolving         int
	SeedSteps                int
	SolutionSteps            int
	RoundGenerationAttempts  int
	SweepIntervalSeconds     int
	CookieSecret             string
	SecureWebsockets         bool
}

func Default() Config {
	return Config{
		Port:                     "8080",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		LinkCacheSeconds:         3600,
		WikiAPIURL:               "https://en.wikipedia.org/w/api.php",
		WikiUserAgent:            "wiki-race/1.0 (https://github.com/wiki-race)",
		WikiTimeoutSeconds:       10,
		TimeLimitMinSeconds:      30,
		TimeLimitMaxSeconds:      1800,
		PointsForSolving:         100,
		SeedSteps:                5,
		SolutionSteps:            4,
		RoundGenerationAttempts:  10,
		SweepIntervalSeconds:     30,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)
	boolean("DB_AUTO_MIGRATE", &cfg.DBAutoMigrate)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RedisDB = value
		}
	}
	positiveInt("LINK_CACHE_SECONDS", &cfg.LinkCacheSeconds)
	if raw := os.Getenv("WIKI_API_URL"); raw != "" {
		cfg.WikiAPIURL = raw
	}
	if raw := os.Getenv("WIKI_USER_AGENT"); raw != "" {
		cfg.WikiUserAgent = raw
	}
	positiveInt("WIKI_TIMEOUT_SECONDS", &cfg.WikiTimeoutSeconds)
	positiveInt("TIME_LIMIT_MIN_SECONDS", &cfg.TimeLimitMinSeconds)
	positiveInt("TIME_LIMIT_MAX_SECONDS", &cfg.TimeLimitMaxSeconds)
	if raw := os.Getenv("POINTS_FOR_SOLVING"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.PointsForSolving = value
		}
	}
	positiveInt("SEED_STEPS", &cfg.SeedSteps)
	positiveInt("SOLUTION_STEPS", &cfg.SolutionSteps)
	positiveInt("ROUND_GENERATION_ATTEMPTS", &cfg.RoundGenerationAttempts)
	positiveInt("SWEEP_INTERVAL_SECONDS", &cfg.SweepIntervalSeconds)
	cfg.CookieSecret = os.Getenv("COOKIE_SECRET")
	boolean("SECURE_WEBSOCKETS", &cfg.SecureWebsockets)
	if cfg.TimeLimitMaxSeconds < cfg.TimeLimitMinSeconds {
		cfg.TimeLimitMaxSeconds = cfg.TimeLimitMinSeconds
	}
	return cfg
}

func (c Config) LinkCacheTTL() time.Duration {
	return time.Duration(c.LinkCacheSeconds) * time.Second
}

func (c Config) WikiTimeout() time.Duration {
	return time.Duration(c.WikiTimeoutSeconds) * time.Second
}

func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func positiveInt(key string, dest *int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*dest = value
	}
}

func boolean(key string, dest *bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.ParseBool(raw); err == nil {
		*dest = value
	}
}
