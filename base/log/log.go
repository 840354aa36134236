// Package log is the process wide structured logger, zap underneath. Loggers are
// values: WithField returns a copy, so a child never leaks fields into its parent.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Fields map[string]interface{}

type Logger struct {
	base   *zap.SugaredLogger
	fields []interface{}
}

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	root  *zap.SugaredLogger
)

func init() {
	Setup(false)
}

// Setup rebuilds the process logger: json in production, console when development is set.
// Loggers handed out earlier keep writing through the previous one.
func Setup(development bool) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z, _ = zap.NewProduction(zap.AddCallerSkip(1))
	}
	root = z.Sugar()
}

// SetLevel changes the minimum level of every logger, including ones already handed out.
func SetLevel(lvl string) error {
	return level.UnmarshalText([]byte(lvl))
}

func Sync() {
	_ = root.Sync()
}

// Log returns the root logger without fields.
func Log() Logger {
	return Logger{base: root}
}

func (l Logger) WithField(key string, value interface{}) Logger {
	fields := make([]interface{}, 0, len(l.fields)+2)
	fields = append(fields, l.fields...)
	return Logger{base: l.base, fields: append(fields, key, value)}
}

func (l Logger) WithFields(kvs Fields) Logger {
	fields := make([]interface{}, 0, len(l.fields)+2*len(kvs))
	fields = append(fields, l.fields...)
	for k, v := range kvs {
		fields = append(fields, k, v)
	}
	return Logger{base: l.base, fields: fields}
}

func (l Logger) sugar() *zap.SugaredLogger {
	if l.base == nil {
		return root.With(l.fields...)
	}
	return l.base.With(l.fields...)
}

func (l Logger) Debug(args ...interface{}) { l.sugar().Debug(args...) }
func (l Logger) Info(args ...interface{})  { l.sugar().Info(args...) }
func (l Logger) Warn(args ...interface{})  { l.sugar().Warn(args...) }
func (l Logger) Error(args ...interface{}) { l.sugar().Error(args...) }
func (l Logger) Panic(args ...interface{}) { l.sugar().Panic(args...) }
