package ticsbot

import (
	"os"
	"strconv"

	"github.com/raykavin/ticsbot/pkg/logger/zerolog"
)

// Logger environment variables and their defaults
const (
	envLogLevel      = "TICSBOT_LOG_LEVEL"       // debug
	envLogTimeFormat = "TICSBOT_LOG_TIME_FORMAT" // 2006-01-02 15:04:05
	envLogColor      = "TICSBOT_LOG_COLOR"       // true
	envLogJSON       = "TICSBOT_LOG_JSON"        // false
)

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = zerolog.NewAdapter(log.Logger)
}

// initLogger creates the default logger from environment variables
func initLogger() (*zerolog.Logger, error) {
	colored, err := envBool(envLogColor, true)
	if err != nil {
		return nil, err
	}

	jsonFormat, err := envBool(envLogJSON, false)
	if err != nil {
		return nil, err
	}

	return zerolog.New(
		envString(envLogLevel, "debug"),
		envString(envLogTimeFormat, "2006-01-02 15:04:05"),
		colored,
		jsonFormat,
	)
}

func envString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(value)
}
