// Package logging builds the zap logger from configuration.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"brain2-canvas/internal/config"
)

// Result is the built logger plus the rotating file it may write to.
type Result struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
	file   io.WriteCloser
}

// Close flushes the logger and closes the log file, if any.
func (r *Result) Close() error {
	_ = r.Logger.Sync()
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParseLevel maps a configured level name to a zap level. Unknown names
// fall back to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds a logger writing to stderr and, when cfg.File is set, to a
// rotating file.
func New(cfg config.Logging) *Result {
	return NewWithWriter(cfg, zapcore.Lock(os.Stderr))
}

// NewWithWriter builds a logger writing to out instead of stderr.
func NewWithWriter(cfg config.Logging, out zapcore.WriteSyncer) *Result {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, out, level)}

	var file io.WriteCloser
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		file = rotating
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(rotating), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return &Result{Logger: logger, Level: level, file: file}
}
