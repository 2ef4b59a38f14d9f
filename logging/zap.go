package logging

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// ContextWithFields returns a copy of ctx carrying fields that a ZapLogger
// obtained through WithContext attaches to every entry.
func ContextWithFields(ctx context.Context, fields ...zap.Field) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]zap.Field)
	return context.WithValue(ctx, ctxKey{}, append(append([]zap.Field(nil), prev...), fields...))
}

// ZapLogger adapts a zap.Logger to the Logger interface. Warn entries are
// written at zap's warn level and Debug entries at debug level; any other
// classification is written at info level.
type ZapLogger struct {
	Logger *zap.Logger
}

// NewZapLogger wraps l.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{Logger: l.WithOptions(zap.AddCallerSkip(1))}
}

// NewZap builds a console logger writing to stderr at the given level, such
// as "debug" or "warn".
func NewZap(level string) (*ZapLogger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl)

	return NewZapLogger(zap.New(core, zap.AddCaller()).Named("xmlb")), nil
}

// Logf logs the formatted message at the level matching classification.
func (z *ZapLogger) Logf(classification Classification, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	switch classification {
	case Warn:
		z.Logger.Warn(msg)
	case Debug:
		z.Logger.Debug(msg)
	default:
		z.Logger.Info(msg)
	}
}

// WithContext returns a logger carrying the fields stored in ctx by
// ContextWithFields.
func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	fields, _ := ctx.Value(ctxKey{}).([]zap.Field)
	if len(fields) == 0 {
		return z
	}
	return &ZapLogger{Logger: z.Logger.With(fields...)}
}
