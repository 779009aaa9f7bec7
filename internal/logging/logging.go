// Package logging builds the zap loggers used by the omara binaries.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Path, if set, receives every record in addition to stdout/stderr.
	Path string
	// Debug lowers the threshold from Info to Debug.
	Debug bool
	// Console selects a human readable encoder instead of JSON.
	Console bool
	// StderrOnly sends every level to stderr, keeping stdout free for
	// command output.
	StderrOnly bool
}

// New builds a logger that routes Debug/Info/Warn to stdout and Error+ to
// stderr. The returned cleanup syncs the logger and closes the log file.
func New(opts Options) (*zap.Logger, func(), error) {
	return build(opts, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
}

func build(opts Options, stdout, stderr zapcore.WriteSyncer) (*zap.Logger, func(), error) {
	if opts.StderrOnly {
		stdout = stderr
	}
	minLevel := zapcore.InfoLevel
	if opts.Debug {
		minLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.Console {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(enc, stdout, low),
		zapcore.NewCore(enc, stderr, high),
	}

	var closeFile func() error
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		closeFile = f.Close
		all := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLevel })
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), all))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	cleanup := func() {
		_ = logger.Sync()
		if closeFile != nil {
			_ = closeFile()
		}
	}
	return logger, cleanup, nil
}
