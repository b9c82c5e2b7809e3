package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"mlsync/internal"
)

type Config struct {
	DBPath    string
	OutputDir string
	InboxDir  string
	HTTPAddr  string

	WatchIntervalSec int

	StockPercent     float64
	RetentionPercent float64
	IncludeTaxes     bool
	SurchargeAmount  float64
	SurchargeKind    string
	UseWeightTable   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "mlsync.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		InboxDir:  getEnv("INBOX_DIR", filepath.Join(cwd, "inbox")),
		HTTPAddr:  getEnv("HTTP_ADDR", ":4000"),

		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 30),

		StockPercent:     getEnvFloat("STOCK_PERCENT", 100),
		RetentionPercent: getEnvFloat("RETENTION_PERCENT", 0),
		IncludeTaxes:     getEnvBool("INCLUDE_TAXES", false),
		SurchargeAmount:  getEnvFloat("SHIPPING_SURCHARGE_AMOUNT", 0),
		SurchargeKind:    getEnv("SHIPPING_SURCHARGE_TYPE", "fixed"),
		UseWeightTable:   getEnvBool("USE_WEIGHT_TABLE", false),
	}

	return cfg, nil
}

// CalcConfig builds the engine configuration from the environment defaults.
func (c Config) CalcConfig() internal.CalcConfig {
	return internal.CalcConfig{
		StockPercent:     c.StockPercent,
		RetentionPercent: c.RetentionPercent,
		IncludeTaxes:     c.IncludeTaxes,
		SurchargeAmount:  c.SurchargeAmount,
		SurchargeKind:    internal.SurchargeKind(strings.ToLower(strings.TrimSpace(c.SurchargeKind))),
		UseWeightTable:   c.UseWeightTable,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
