package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	TelegramToken     string
	OwnerID           int64
	BotName           string
	StoreDriver       string
	MongoURI          string
	MongoDatabase     string
	CommandPrefix     string
	Location          *time.Location
	RearmOnStart      bool
	ReconcileSchedule string
	OpsAddr           string
	LogLevel          string
	LogFormat         string
}

// LoadConfig reads envFile when it exists, then the process environment.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
			log.Warn().Str("file", envFile).Msg("env file not found, using process environment")
		}
	}

	cfg := Config{
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		BotName:           getenv("BOT_NAME", "Bot"),
		StoreDriver:       strings.ToLower(getenv("STORE_DRIVER", "mongo")),
		MongoURI:          os.Getenv("MONGODB_URI"),
		MongoDatabase:     getenv("MONGODB_DATABASE", "telegram_bot"),
		CommandPrefix:     getenv("COMMAND_PREFIX", "."),
		ReconcileSchedule: getenv("RECONCILE_SCHEDULE", "@every 10m"),
		OpsAddr:           getenv("OPS_ADDR", ":9090"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "console"),
	}

	owner := os.Getenv("BOT_OWNER_ID")
	if owner == "" {
		return Config{}, errors.New("BOT_OWNER_ID is not set")
	}
	id, err := strconv.ParseInt(owner, 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("BOT_OWNER_ID %q is not a numeric user ID", owner)
	}
	cfg.OwnerID = id

	if cfg.TelegramToken == "" {
		return Config{}, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	switch cfg.StoreDriver {
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, errors.New("MONGODB_URI is not set")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	loc, err := time.LoadLocation(getenv("TIMEZONE", "Asia/Kolkata"))
	if err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.RearmOnStart, err = strconv.ParseBool(getenv("REARM_ON_START", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("REARM_ON_START: %w", err)
	}
	return cfg, nil
}

// getenv treats an unset variable as def. A variable set to "" stays empty,
// which is how RECONCILE_SCHEDULE and OPS_ADDR are switched off.
func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
