package logger

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SetupLogger initializes the default logger from CLI flag values.
func SetupLogger(logLevel string, logJSON bool) {
	cfg := DefaultConfig()
	cfg.Level = ParseLevel(logLevel)
	cfg.JSON = logJSON
	cfg.AddSource = cfg.Level == DebugLevel
	Init(cfg)
}

// ParseLevel converts a flag value to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DebugLevel:
		return DebugLevel
	case WarnLevel, "warning":
		return WarnLevel
	case ErrorLevel:
		return ErrorLevel
	case DisabledLevel, "off", "none":
		return DisabledLevel
	default:
		return InfoLevel
	}
}

// GetLoggerConfig reads the logging flags registered on the root command.
func GetLoggerConfig(cmd *cobra.Command) (string, bool, error) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return "", false, fmt.Errorf("failed to get log-level flag: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return "", false, fmt.Errorf("failed to get log-json flag: %w", err)
	}

	return logLevel, logJSON, nil
}
