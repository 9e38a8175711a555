package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

type Options struct {
	Name   string
	Level  string
	Format string
	Output io.Writer
}

// New builds the root logger. Unknown levels fall back to info.
func New(o Options) hclog.Logger {
	if o.Output == nil {
		o.Output = os.Stderr
	}
	if o.Name == "" {
		o.Name = "vidsub"
	}
	level := hclog.LevelFromString(o.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       o.Name,
		Level:      level,
		Output:     o.Output,
		JSONFormat: o.Format == "json",
	})
}

// Logf adapts a logger to the printf-style progress callback used by the
// workflow steps.
func Logf(l hclog.Logger, args ...any) func(format string, a ...any) {
	return func(format string, a ...any) {
		l.Info(fmt.Sprintf(format, a...), args...)
	}
}
