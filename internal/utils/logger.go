package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"golang.org/x/term"
)

// Log output formats accepted by NewLogger.
const (
	LogFormatAuto    = "auto"
	LogFormatText    = "text"
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// ParseLevel maps a config level name to a slog level. Unknown names read as info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger returns a slog.Logger writing to stdout at the desired verbosity and format.
// An empty format falls back to json when asJSON is set and text otherwise.
func NewLogger(level, format string, asJSON bool) *slog.Logger {
	return NewLoggerTo(os.Stdout, level, format, asJSON)
}

// NewLoggerTo is NewLogger with an explicit writer.
func NewLoggerTo(w io.Writer, level, format string, asJSON bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handlerLevel := ParseLevel(level)

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = LogFormatText
		if asJSON {
			format = LogFormatJSON
		}
	}
	if format == LogFormatAuto {
		format = LogFormatJSON
		if isTerminal(w) {
			format = LogFormatConsole
		}
	}

	var handler slog.Handler
	switch format {
	case LogFormatConsole:
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(handlerLevel),
			clog.WithTimeFmt("15:04:05"),
			clog.WithSource(false),
			clog.WithAttrHook(clog.GoerrHook),
		)
	case LogFormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: handlerLevel})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: handlerLevel})
	}

	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
