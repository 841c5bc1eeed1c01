package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (development, production)
	Port           string // HTTP port to listen on
	LogLevel       string // zap level name (debug, info, warn, error)
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
}

// Load reads configuration values from the environment.  A .env file in the
// working directory is loaded first when present; real environment variables
// win over values from the file.  Missing required variables are reported
// together in a single error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:       envStr("APP_ENV", "development"),
		Port:      must("APP_PORT"),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required env vars: %v", missing)
	}

	var err error
	if cfg.AccessTTLMin, err = intVar("ACCESS_TOKEN_TTL_MIN", 15); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTLDays, err = intVar("REFRESH_TOKEN_TTL_DAYS", 30); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = intVar("BCRYPT_COST", 10); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and production safety.
func (c Config) Validate() error {
	if c.AccessTTLMin <= 0 {
		return errors.New("config: ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if c.RefreshTTLDays <= 0 {
		return errors.New("config: REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST %d out of range [4,31]", c.BcryptCost)
	}
	if c.Env == "production" && len(c.JWTSecret) < 32 {
		return errors.New("config: in production JWT_SECRET must be at least 32 bytes")
	}
	return nil
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c Config) IsDevelopment() bool { return c.Env == "development" || c.Env == "dev" }

// intVar is like envInt but reports malformed values instead of hiding them.
func intVar(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid int for %s: %q", key, s)
	}
	return n, nil
}
