package logsvc

import (
	"log"

	"github.com/tmalache/chuo/core"
)

// PlainLogger writes to a std logger only. Used in dev and tests where
// error reporting would be noise.
type PlainLogger struct {
	std *log.Logger
}

var _ core.Logger = (*PlainLogger)(nil)

func NewPlainLogger(std *log.Logger) *PlainLogger {
	return &PlainLogger{std: std}
}

func (l PlainLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l PlainLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, args) }
func (l PlainLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l PlainLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l PlainLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }

func (l PlainLogger) Fatal(msg string, args ...interface{}) {
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
