// Package notify is the user notification boundary of the updater. Calls are
// fire and forget and never influence update state.
package notify

import (
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notifier shows short messages to the user
type Notifier interface {
	Info(message string)
	Success(message string)
	Warn(message string)
	Error(message string)
}

// Sink logs every notification and optionally echoes it to out, the
// terminal counterpart of the launcher toasts.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSink creates a Sink. out may be nil to only log.
func NewSink(out io.Writer) *Sink {
	return &Sink{out: out}
}

func (s *Sink) Info(message string) {
	s.notify(LevelInfo, message)
}

func (s *Sink) Success(message string) {
	s.notify(LevelSuccess, message)
}

func (s *Sink) Warn(message string) {
	s.notify(LevelWarn, message)
}

func (s *Sink) Error(message string) {
	s.notify(LevelError, message)
}

func (s *Sink) notify(level Level, message string) {
	entry := log.WithField("toast", string(level))
	switch level {
	case LevelError:
		entry.Error(message)
	case LevelWarn:
		entry.Warn(message)
	default:
		entry.Info(message)
	}

	if s.out == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.out, "[%s] %s\n", level, message); err != nil {
		log.Debugf("failed to print notification: %v", err)
	}
}

// Discard drops every notification
type Discard struct{}

func (Discard) Info(string)    {}
func (Discard) Success(string) {}
func (Discard) Warn(string)    {}
func (Discard) Error(string)   {}
