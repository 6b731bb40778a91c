package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// New builds a logger for level. "development" gives a human-readable
// console logger at debug level; anything else a JSON production logger.
func New(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "development") {
		return zap.NewDevelopment()
	}

	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}
