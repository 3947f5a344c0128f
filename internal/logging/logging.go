// Package logging builds the process logger: console output plus an
// optional dated, rotated log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log formats.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"
)

// Config controls logger construction.
type Config struct {
	Level  slog.Level
	Format string // auto, json, or text; auto picks text on a terminal
	Dir    string // directory for tabtidy_<date>.log; empty disables the file
}

// FileName returns the log file path for day under dir.
func FileName(dir string, day time.Time) string {
	return filepath.Join(dir, "tabtidy_"+day.Format("2006-01-02")+".log")
}

// New returns a logger writing to console and, when cfg.Dir is set, to a
// rotated file. The returned close function flushes and closes the file.
func New(cfg Config, console io.Writer) (*slog.Logger, func() error, error) {
	closeFn := func() error { return nil }
	out := console

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   FileName(cfg.Dir, time.Now()),
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		}
		out = io.MultiWriter(console, rotator)
		closeFn = rotator.Close
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}

	var handler slog.Handler
	if useText(cfg.Format, console) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler), closeFn, nil
}

func useText(format string, console io.Writer) bool {
	switch strings.ToLower(format) {
	case FormatText:
		return true
	case FormatJSON:
		return false
	}
	f, ok := console.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
