package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Dosada05/double-elimination/storage"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort int

	// DatabaseURL is optional; without it the state lives in memory.
	DatabaseURL string

	JWTSecretKey          string
	OrganizerPasswordHash string
	CORSAllowedOrigins    []string

	R2 storage.CloudflareR2UploaderConfig

	// RandomSeed fixes the seeding shuffle when HasRandomSeed is set.
	RandomSeed    uint64
	HasRandomSeed bool
}

// Load читает конфигурацию из окружения, предварительно подгружая .env, если он есть.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:           getenv("DATABASE_URL"),
		JWTSecretKey:          getenv("JWT_SECRET_KEY"),
		OrganizerPasswordHash: getenv("ORGANIZER_PASSWORD_HASH"),
		CORSAllowedOrigins:    splitList(getenv("CORS_ALLOWED_ORIGINS")),
		R2: storage.CloudflareR2UploaderConfig{
			AccountID:       getenv("R2_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
		},
	}

	if cfg.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.OrganizerPasswordHash == "" {
		return nil, errors.New("ORGANIZER_PASSWORD_HASH environment variable is not set")
	}

	portStr := getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	if seed := getenv("RANDOM_SEED"); seed != "" {
		cfg.RandomSeed, err = strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RANDOM_SEED environment variable: %w", err)
		}
		cfg.HasRandomSeed = true
	}

	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
