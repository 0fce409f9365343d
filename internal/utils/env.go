package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/skillhub-backend/internal/platform/logger"
)

// lookupEnv reports whether key is set. A set but empty variable counts as set
// so operators can blank out a default.
func lookupEnv(key string, log *logger.Logger) (string, bool) {
	val, ok := os.LookupEnv(key)
	if log != nil {
		log.Debug("Reading environment", "env_var", key, "set", ok)
	}
	return val, ok
}

func warnUnparsable(log *logger.Logger, key, kind, raw string, def any, err error) {
	if log == nil {
		return
	}
	log.Warn("Environment variable could not be parsed, using default",
		"env_var", key, "kind", kind, "providedVal", raw, "defaultVal", def, "error", err)
}

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if val, ok := lookupEnv(key, log); ok {
		return val
	}
	return defaultVal
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	raw, ok := lookupEnv(key, log)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		warnUnparsable(log, key, "int", raw, defaultVal, err)
		return defaultVal
	}
	return i
}

func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	raw, ok := lookupEnv(key, log)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		warnUnparsable(log, key, "bool", raw, defaultVal, err)
		return defaultVal
	}
	return b
}

// GetEnvAsDuration reads an integer count of unit, e.g. ACCOUNT_MIN_AGE_DAYS
// with unit 24h. Negative values fall back to the default.
func GetEnvAsDuration(key string, defaultCount int, unit time.Duration, log *logger.Logger) time.Duration {
	n := GetEnvAsInt(key, defaultCount, log)
	if n < 0 {
		warnUnparsable(log, key, "duration", strconv.Itoa(n), defaultCount, nil)
		n = defaultCount
	}
	return time.Duration(n) * unit
}

// GetEnvAsList splits a comma separated value, dropping blanks.
func GetEnvAsList(key string, log *logger.Logger) []string {
	raw, _ := lookupEnv(key, log)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
