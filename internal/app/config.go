package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/recipevault-backend/internal/platform/envutil"
	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

type Config struct {
	Port            string
	LogMode         string
	ShutdownTimeout time.Duration
}

// LoadConfig reads the optional YAML file named by RECIPEVAULT_CONFIG and
// then the process environment. File values only seed variables the
// environment leaves unset, so deployment env always wins.
func LoadConfig(log *logger.Logger) (Config, error) {
	if path := strings.TrimSpace(os.Getenv("RECIPEVAULT_CONFIG")); path != "" {
		if err := applyConfigFile(path); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
		log.Info("Config file applied", "path", path)
	}
	return Config{
		Port:            envutil.String("PORT", "8080"),
		LogMode:         envutil.String("LOG_MODE", "development"),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
	}, nil
}

// applyConfigFile maps a flat YAML document of env-style keys into the
// process environment, e.g.:
//
//	KV_STORE_MODE: sqlite
//	RECIPE_IMAGES_BUCKET: recipevault-images
func applyConfigFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}
