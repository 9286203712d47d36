// Package logger installs the process-wide zap logger.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls level and file rotation.
type Config struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	FilePath   string `yaml:"file_path"`   // directory; empty disables file output
	MaxSize    int    `yaml:"max_size"`    // MB before rotation
	MaxAge     int    `yaml:"max_age"`     // days
	MaxBackups int    `yaml:"max_backups"` // rotated files kept
	Compress   bool   `yaml:"compress"`
}

// New builds a logger writing to stdout and, when FilePath is set, to a
// rotated file.
func New(cfg Config) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
	}
	if cfg.FilePath != "" {
		w := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.FilePath, "advisor.log"),
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// Init builds the logger and replaces zap's globals so packages can log via zap.L().
// The returned func flushes buffered output.
func Init(cfg Config) func() {
	l := New(cfg)
	undo := zap.ReplaceGlobals(l)
	return func() {
		_ = l.Sync()
		undo()
	}
}
