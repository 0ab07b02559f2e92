package utils

import (
	"log"
	"os"
)

// Logger is a thin wrapper over the stdlib logger so services receive an
// explicit dependency instead of reaching for a package-level default.
type Logger struct {
	std *log.Logger
}

func NewLogger() *Logger {
	return &Logger{std: log.New(os.Stdout, "", log.LstdFlags|log.LUTC)}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf(format, args...)
}

func (l *Logger) Fatalf(format string, args ...any) {
	if l == nil || l.std == nil {
		log.Fatalf(format, args...)
		return
	}
	l.std.Fatalf(format, args...)
}
