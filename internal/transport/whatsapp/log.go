package whatsapp

import (
	"context"
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// waLogger bridges whatsmeow's printf logger onto slog.
type waLogger struct {
	l *slog.Logger
}

func newWALogger(l *slog.Logger) waLog.Logger {
	return waLogger{l: l}
}

func (w waLogger) log(level slog.Level, msg string, args []interface{}) {
	if !w.l.Enabled(context.Background(), level) {
		return
	}
	w.l.Log(context.Background(), level, fmt.Sprintf(msg, args...))
}

func (w waLogger) Debugf(msg string, args ...interface{}) { w.log(slog.LevelDebug, msg, args) }
func (w waLogger) Infof(msg string, args ...interface{})  { w.log(slog.LevelInfo, msg, args) }
func (w waLogger) Warnf(msg string, args ...interface{})  { w.log(slog.LevelWarn, msg, args) }
func (w waLogger) Errorf(msg string, args ...interface{}) { w.log(slog.LevelError, msg, args) }

func (w waLogger) Sub(module string) waLog.Logger {
	return waLogger{l: w.l.With(slog.String("module", module))}
}
