package infra

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return ColorRed
	case l >= slog.LevelWarn:
		return ColorYellow
	case l >= slog.LevelInfo:
		return ColorGreen
	default:
		return ColorCyan
	}
}

// NewLogger builds the application logger from config. The level name is
// colorized via ReplaceAttr; the rest of the line stays plain slog text
// output, machine-readable.
func NewLogger(cfg *Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lv, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(fmt.Sprintf("%s%s%s", levelColor(lv), lv.String(), ColorReset))
				}
			}
			return a
		},
	})

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
