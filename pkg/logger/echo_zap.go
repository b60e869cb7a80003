package logger

import (
	"encoding/json"
	"io"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
)

// EchoZapLogger routes echo's internal logging (recover middleware, server
// startup) through zap. Entries below the configured level are dropped.
type EchoZapLogger struct {
	sugar  *zap.SugaredLogger
	prefix string
	level  atomic.Uint32
}

var _ echo.Logger = (*EchoZapLogger)(nil)

func NewEchoZapLogger(logger *zap.Logger) *EchoZapLogger {
	l := &EchoZapLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
	l.level.Store(uint32(log.INFO))
	return l
}

func (l *EchoZapLogger) enabled(lvl log.Lvl) bool {
	return lvl >= log.Lvl(l.level.Load())
}

func (l *EchoZapLogger) Output() io.Writer { return zapWriter{l.sugar} }

// SetOutput is ignored; output is owned by the zap core.
func (l *EchoZapLogger) SetOutput(io.Writer) {}

func (l *EchoZapLogger) Prefix() string { return l.prefix }

func (l *EchoZapLogger) SetPrefix(p string) {
	l.prefix = p
	l.sugar = l.sugar.With("prefix", p)
}

func (l *EchoZapLogger) Level() log.Lvl { return log.Lvl(l.level.Load()) }

func (l *EchoZapLogger) SetLevel(v log.Lvl) { l.level.Store(uint32(v)) }

// SetHeader is ignored; zap encodes its own header fields.
func (l *EchoZapLogger) SetHeader(string) {}

func (l *EchoZapLogger) Print(i ...interface{}) { l.Info(i...) }

func (l *EchoZapLogger) Printf(format string, args ...interface{}) { l.Infof(format, args...) }

func (l *EchoZapLogger) Printj(j log.JSON) { l.Infoj(j) }

func (l *EchoZapLogger) Debug(i ...interface{}) {
	if l.enabled(log.DEBUG) {
		l.sugar.Debug(i...)
	}
}

func (l *EchoZapLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(log.DEBUG) {
		l.sugar.Debugf(format, args...)
	}
}

func (l *EchoZapLogger) Debugj(j log.JSON) {
	if l.enabled(log.DEBUG) {
		l.sugar.Debugw(jsonMessage(j))
	}
}

func (l *EchoZapLogger) Info(i ...interface{}) {
	if l.enabled(log.INFO) {
		l.sugar.Info(i...)
	}
}

func (l *EchoZapLogger) Infof(format string, args ...interface{}) {
	if l.enabled(log.INFO) {
		l.sugar.Infof(format, args...)
	}
}

func (l *EchoZapLogger) Infoj(j log.JSON) {
	if l.enabled(log.INFO) {
		l.sugar.Infow(jsonMessage(j))
	}
}

func (l *EchoZapLogger) Warn(i ...interface{}) {
	if l.enabled(log.WARN) {
		l.sugar.Warn(i...)
	}
}

func (l *EchoZapLogger) Warnf(format string, args ...interface{}) {
	if l.enabled(log.WARN) {
		l.sugar.Warnf(format, args...)
	}
}

func (l *EchoZapLogger) Warnj(j log.JSON) {
	if l.enabled(log.WARN) {
		l.sugar.Warnw(jsonMessage(j))
	}
}

func (l *EchoZapLogger) Error(i ...interface{}) {
	if l.enabled(log.ERROR) {
		l.sugar.Error(i...)
	}
}

func (l *EchoZapLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(log.ERROR) {
		l.sugar.Errorf(format, args...)
	}
}

func (l *EchoZapLogger) Errorj(j log.JSON) {
	if l.enabled(log.ERROR) {
		l.sugar.Errorw(jsonMessage(j))
	}
}

func (l *EchoZapLogger) Fatal(i ...interface{}) { l.sugar.Fatal(i...) }

func (l *EchoZapLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

func (l *EchoZapLogger) Fatalj(j log.JSON) { l.sugar.Fatalw(jsonMessage(j)) }

func (l *EchoZapLogger) Panic(i ...interface{}) { l.sugar.Panic(i...) }

func (l *EchoZapLogger) Panicf(format string, args ...interface{}) { l.sugar.Panicf(format, args...) }

func (l *EchoZapLogger) Panicj(j log.JSON) { l.sugar.Panicw(jsonMessage(j)) }

func jsonMessage(j log.JSON) string {
	b, err := json.Marshal(j)
	if err != nil {
		return "unencodable log payload"
	}
	return string(b)
}

// zapWriter turns writes from echo's stdlib-style output into info entries.
type zapWriter struct {
	sugar *zap.SugaredLogger
}

func (w zapWriter) Write(p []byte) (int, error) {
	w.sugar.Info(string(p))
	return len(p), nil
}
