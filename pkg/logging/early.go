package logging

import (
	"fmt"
	"os"
)

// EarlyLog writes to stderr before the structured logger is configured.
type EarlyLog struct {
	exit func(code int)
}

func NewEarlyLog() *EarlyLog {
	return &EarlyLog{exit: os.Exit}
}

// Error prints the message and terminates the process.
func (l *EarlyLog) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: "+msg+"\n", args...)
	l.exit(1)
}

func (l *EarlyLog) Warn(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "WARN: "+msg+"\n", args...)
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "INFO: "+msg+"\n", args...)
}
