package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir   string
	File  string // defaults to envprobe.log
	Level string // debug, info, warn, error; defaults to info

	// Console, when set, also receives human-readable output (CLI runs).
	Console io.Writer
}

func NewLogger(logDir string) (*zap.Logger, error) {
	return New(Options{Dir: logDir})
}

func New(o Options) (*zap.Logger, error) {
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return nil, err
	}
	if o.File == "" {
		o.File = "envprobe.log"
	}
	level := zap.InfoLevel
	if o.Level != "" {
		if err := level.UnmarshalText([]byte(o.Level)); err != nil {
			return nil, err
		}
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(o.Dir, o.File),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)

	if o.Console != nil {
		ccfg := zap.NewDevelopmentEncoderConfig()
		ccfg.TimeKey = ""
		console := zapcore.NewCore(zapcore.NewConsoleEncoder(ccfg), zapcore.AddSync(o.Console), level)
		core = zapcore.NewTee(core, console)
	}
	return zap.New(core), nil
}
