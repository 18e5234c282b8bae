// Package logging wires the process-wide zap logger with rotating
// file output.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Init builds the global logger. An empty file path keeps logging on
// stderr only; otherwise output goes to both stderr and a rotating
// file via lumberjack.
func Init(levelName, file string, maxSizeMB, maxBackups, maxAgeDays int) error {
	if err := SetLevel(levelName); err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}
	if file != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	return nil
}

// SetLevel adjusts the global level at runtime (config hot reload).
func SetLevel(name string) error {
	if name == "" {
		name = "info"
	}
	lv, err := zapcore.ParseLevel(name)
	if err != nil {
		return err
	}
	level.SetLevel(lv)
	return nil
}

// L returns the global sugared logger.
func L() *zap.SugaredLogger { return zap.S() }

// Sync flushes buffered entries on shutdown.
func Sync() { _ = zap.L().Sync() }
