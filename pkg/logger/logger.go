package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
	Sync() error
}

// Options controls where and how log lines are written. Output is "stdout",
// "stderr" or a file path; file output is rotated.
type Options struct {
	Level      string
	Format     string
	Output     string
	MaxAgeDays int
	MaxSizeMB  int
}

type ZapLogger struct {
	logger *zap.SugaredLogger
}

func New() Logger {
	l, err := NewWithOptions(Options{Level: "info", Format: "json", Output: "stdout"})
	if err != nil {
		panic(err)
	}
	return l
}

func NewWithOptions(opts Options) (Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console", "text":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("invalid log format '%s'", opts.Format)
	}

	var sink zapcore.WriteSyncer
	switch opts.Output {
	case "", "stdout":
		sink = zapcore.Lock(os.Stdout)
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename: opts.Output,
			MaxAge:   opts.MaxAgeDays,
			MaxSize:  maxSize,
			Compress: true,
		})
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1), // Skip one level to show actual caller
	)

	return &ZapLogger{
		logger: logger.Sugar(),
	}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger, mostly for tests using zaptest/observer.
func FromZap(l *zap.Logger) Logger {
	return &ZapLogger{logger: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return l, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	return l, nil
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Fatal(msg string, keysAndValues ...interface{}) {
	l.logger.Fatalw(msg, keysAndValues...)
}

func (l *ZapLogger) With(keysAndValues ...interface{}) Logger {
	return &ZapLogger{logger: l.logger.With(keysAndValues...)}
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
