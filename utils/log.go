package utils

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

const LevelCritical = slog.Level(12)

// ParseLevel accepts DEBUG, INFO, WARNING, ERROR and CRITICAL in any case,
// plus anything slog.Level understands.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WARNING":
		return slog.LevelWarn, nil
	case "CRITICAL":
		return LevelCritical, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "unsupported log level %q", s)
	}
	return level, nil
}

// LevelName renders LevelCritical as CRITICAL instead of ERROR+4.
func LevelName(level slog.Level) string {
	if level == LevelCritical {
		return "CRITICAL"
	}
	return level.String()
}
