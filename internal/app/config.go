package app

import (
	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/utils"
)

type Config struct {
	HTTPPort        int
	DefaultTimezone string
	Environment     string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPPort:        utils.GetEnvAsInt("HTTP_PORT", 5000, log),
		DefaultTimezone: utils.GetEnv("DEFAULT_TIMEZONE", "America/New_York", log),
		Environment:     utils.GetEnv("APP_ENV", "development", log),
	}
}
