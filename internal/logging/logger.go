package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger every component takes.
// Tests pass Nop().
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a structured key-value pair.
type Field = zap.Field

// zapLogger gets Debug/Info/Warn/Error from the embedded *zap.Logger and
// only overrides With so the result stays a Logger.
type zapLogger struct {
	*zap.Logger
}

func (l zapLogger) With(fields ...Field) Logger {
	return zapLogger{l.Logger.With(fields...)}
}

// NewLogger builds a JSON logger writing to stderr at the named level
// (debug, info, warn, error; anything else means info). Stdout is left
// to command output.
func NewLogger(level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.ErrorLevel {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger{z}, nil
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return zapLogger{zap.NewNop()}
}

var (
	String     = zap.String
	Int        = zap.Int
	Bool       = zap.Bool
	ErrorField = zap.Error
)

// Duration records d in whole milliseconds.
func Duration(key string, d time.Duration) Field {
	return zap.Int64(key, d.Milliseconds())
}
