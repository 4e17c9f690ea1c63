package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Production environments log JSON for
// ingestion; everything else stays human-readable.
func New(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// FileSink appends formatted lines to a file, creating it on first write.
// Writes are serialized; a sink shared between the signals log and the
// analyzer goroutines must not interleave lines.
type FileSink struct {
	mu   sync.Mutex
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// WriteLine appends one timestamped line.
func (s *FileSink) WriteLine(format string, args ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log sink %s: %w", s.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	line := fmt.Sprintf("%s | %s\n", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to log sink %s: %w", s.path, err)
	}
	return nil
}
