// Package config loads application configuration from defaults, an
// optional .env file, and FAKEMENS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Generate GenerateConfig
	Remind   RemindConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port  int
	Token string // empty disables bearer auth on the local API
}

type StorageConfig struct {
	DataDir string
}

type GenerateConfig struct {
	Cycles   int // default cycle count per generation batch
	Profiles int // default profile count for `profile new`
}

type RemindConfig struct {
	CronSpec    string
	HorizonDays int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4700,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Generate: GenerateConfig{
			Cycles:   12,
			Profiles: 1,
		},
		Remind: RemindConfig{
			CronSpec:    "0 9 * * *",
			HorizonDays: 7,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "fakemens")
	}
	return ".fakemens"
}

// Load reads configuration from defaults, an optional .env file in the
// working directory, and FAKEMENS_* environment variables, in that
// order of increasing precedence. godotenv never overrides variables
// already present in the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Generate.Cycles <= 0 {
		return Config{}, fmt.Errorf("FAKEMENS_CYCLES must be positive, got %d", cfg.Generate.Cycles)
	}
	if cfg.Generate.Profiles <= 0 {
		return Config{}, fmt.Errorf("FAKEMENS_PROFILES must be positive, got %d", cfg.Generate.Profiles)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("FAKEMENS_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("FAKEMENS_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("FAKEMENS_REMIND_CRON"); v != "" {
		cfg.Remind.CronSpec = v
	}
	if v := os.Getenv("FAKEMENS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	intVars := []struct {
		name   string
		target *int
	}{
		{"FAKEMENS_PORT", &cfg.Server.Port},
		{"FAKEMENS_CYCLES", &cfg.Generate.Cycles},
		{"FAKEMENS_PROFILES", &cfg.Generate.Profiles},
		{"FAKEMENS_REMIND_HORIZON", &cfg.Remind.HorizonDays},
	}
	for _, v := range intVars {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", v.name, err)
		}
		*v.target = n
	}

	return nil
}
