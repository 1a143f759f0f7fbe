package app

import (
	"github.com/tidecrest/aquafarm-backend/internal/platform/envutil"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	Version     string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	}
	log.Info("Config loaded", "port", cfg.Port, "environment", cfg.Environment)
	return cfg
}
