package logctx

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Builds the watcher destination: stdout plus an optional rotating log file.
// The returned closer must be called after the watcher finished.
func NewOutput(file FileOutput) (output io.Writer, closer func() error, err error) {
	closer = func() error { return nil }
	if file.Path == "" {
		output = os.Stdout
		return
	}

	if file.MaxSizeMB < 0 || file.MaxBackups < 0 || file.MaxAgeDays < 0 {
		err = fmt.Errorf("log rotation limits cannot be negative")
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   file.Compress,
	}
	output = io.MultiWriter(os.Stdout, rotator)
	closer = rotator.Close
	return
}
