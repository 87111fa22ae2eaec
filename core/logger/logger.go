package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Init replaces the package logger. JSON output is used outside the local environment.
func Init(env string, level string) {
	Setup(os.Stdout, env, level)
}

func Setup(w io.Writer, env string, level string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if env == "" || strings.EqualFold(env, "local") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	current.Store(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) {
	current.Load().Debug(msg, normalize(args)...)
}

func Info(msg string, args ...any) {
	current.Load().Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	current.Load().Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	current.Load().Error(msg, normalize(args)...)
}

// normalize lets callers pass a bare error, as in logger.Error("Repo:Method", err).
func normalize(args []any) []any {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			return []any{"error", err}
		}
	}
	return args
}
