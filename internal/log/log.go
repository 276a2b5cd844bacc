package log

import (
	"io"
	"os"

	"github.com/paularlott/logger"
	logslog "github.com/paularlott/logger/slog"
)

var defaultLogger logger.Logger

func init() {
	defaultLogger = logslog.New(logslog.Config{
		Level:  "info",
		Format: "console",
		Writer: os.Stdout,
	})
}

func Configure(level, format string) {
	ConfigureWriter(level, format, os.Stdout)
}

// ConfigureWriter replaces the default logger, writing to w.
func ConfigureWriter(level, format string, w io.Writer) {
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "console"
	}
	defaultLogger = logslog.New(logslog.Config{
		Level:  level,
		Format: format,
		Writer: w,
	})
}

func Info(msg string, keysAndValues ...any) {
	defaultLogger.Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	defaultLogger.Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	defaultLogger.Error(msg, keysAndValues...)
}

func Debug(msg string, keysAndValues ...any) {
	defaultLogger.Debug(msg, keysAndValues...)
}
