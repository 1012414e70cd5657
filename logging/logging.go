// Package logging provides the core's leveled logger and the typed event
// stream the transaction coordinator emits as it moves through an
// install/update/delete operation.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Logger writes leveled, prefixed lines to an underlying writer. The zero
// value writes to os.Stdout, the same way main.go logs straight to stdout.
type Logger struct {
	Out io.Writer
}

// Default is the package-level logger used by the free functions below.
var Default = &Logger{Out: os.Stdout}

func (l *Logger) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l *Logger) line(level, format string, args ...interface{}) {
	fmt.Fprintf(l.out(), "%s [%s] %s\n", time.Now().UTC().Format(time.RFC3339), level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{})   { l.line("debug", format, args...) }
func (l *Logger) Info(format string, args ...interface{})    { l.line("info", format, args...) }
func (l *Logger) Warning(format string, args ...interface{}) { l.line("warning", format, args...) }
func (l *Logger) Success(format string, args ...interface{}) { l.line("success", format, args...) }
func (l *Logger) Error(format string, args ...interface{})   { l.line("error", format, args...) }

func Debug(format string, args ...interface{})   { Default.Debug(format, args...) }
func Info(format string, args ...interface{})    { Default.Info(format, args...) }
func Warning(format string, args ...interface{}) { Default.Warning(format, args...) }
func Success(format string, args ...interface{}) { Default.Success(format, args...) }
func Error(format string, args ...interface{})   { Default.Error(format, args...) }
