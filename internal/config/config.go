package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath       string
	TemplatePath string
	OutputDir    string

	// Fixed template layout: header labels on HeaderRow, data from StartRow.
	HeaderRow int
	StartRow  int

	FilePrefix string

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:       getEnv("SDI_DB_PATH", filepath.Join(cwd, "data", "QR_codes.db")),
		TemplatePath: getEnv("SDI_TEMPLATE_PATH", filepath.Join(cwd, "template", "Import Assets-TEMPLATE.xlsx")),
		OutputDir:    getEnv("SDI_OUTPUT_DIR", filepath.Join(cwd, "out")),

		HeaderRow: getEnvInt("SDI_TEMPLATE_HEADER_ROW", 9),
		StartRow:  getEnvInt("SDI_TEMPLATE_START_ROW", 10),

		FilePrefix: getEnv("SDI_FILE_PREFIX", "SDI_Process"),

		LogLevel:  getEnv("SDI_LOG_LEVEL", "info"),
		LogFormat: getEnv("SDI_LOG_FORMAT", "console"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
