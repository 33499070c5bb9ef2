// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Setup installs a tint handler writing to w at level as the slog default
// and routes the standard library logger through it. Colour is used only
// when w is a terminal.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(w),
	}))
	slog.SetDefault(logger)

	// deep deps may still use the standard logger
	lw := &slogWriter{}
	log.Default().SetOutput(lw)
	log.SetOutput(lw)
	log.SetFlags(0)
	return logger
}

// ParseLevel parses debug, info, warn or error. Empty input means info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (supported: debug, info, warn, error)", s)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type slogWriter struct{}

func (w *slogWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimRight(string(p), "\n")
	switch {
	case strings.HasPrefix(msg, "ERROR "):
		slog.Error(strings.TrimPrefix(msg, "ERROR "))
	case strings.HasPrefix(msg, "WARN "):
		slog.Warn(strings.TrimPrefix(msg, "WARN "))
	case strings.HasPrefix(msg, "INFO "):
		slog.Info(strings.TrimPrefix(msg, "INFO "))
	default:
		slog.Debug(msg)
	}
	return len(p), nil
}
