// Package logger provides opinionated logging capabilities for chatbox
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to sink. Colored levels are only
// worth enabling when sink is a terminal.
func New(debug bool, sink zapcore.WriteSyncer, color bool) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Set log level
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		sink,
		level,
	)

	return zap.New(core, zap.AddCaller())
}

// NewFileLogger opens path for appending and logs to it without colors.
// The returned closer syncs and closes the file.
func NewFileLogger(debug bool, path string) (*zap.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}

	return New(debug, zapcore.AddSync(f), false), f, nil
}
