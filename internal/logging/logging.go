// Package logging builds the zap loggers used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LevelTerse logs at info and above.
	LevelTerse = "terse"
	// LevelVerbose adds debug output such as resolved settings.
	LevelVerbose = "verbose"
)

// ParseLevel maps a verbosity name onto a zap level. Empty means terse.
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case LevelVerbose:
		return zapcore.DebugLevel, nil
	case LevelTerse, "":
		return zapcore.InfoLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New creates a console zap logger writing to w (stderr when nil) at the requested verbosity.
func New(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = "time"
	encoderCfg.LevelKey = "level"
	encoderCfg.MessageKey = "msg"

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(w))), nil
}
