// Package notify carries transient user notifications and refresh events
// between console components. Both are injected; nothing here is global.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows transient messages to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}

// Writer prints notifications as single lines to an io.Writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer notifier.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) print(prefix, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", prefix, msg)
}

// Success implements Notifier
func (n *Writer) Success(msg string) { n.print("[ok]", msg) }

// Error implements Notifier
func (n *Writer) Error(msg string) { n.print("[error]", msg) }

// Info implements Notifier
func (n *Writer) Info(msg string) { n.print("[info]", msg) }

// Log writes notifications to a zap logger.
type Log struct {
	log *zap.Logger
}

// NewLog creates a Log notifier.
func NewLog(log *zap.Logger) *Log {
	return &Log{log: log.Named("notify")}
}

// Success implements Notifier
func (n *Log) Success(msg string) { n.log.Info(msg, zap.String("level", string(LevelSuccess))) }

// Error implements Notifier
func (n *Log) Error(msg string) { n.log.Warn(msg, zap.String("level", string(LevelError))) }

// Info implements Notifier
func (n *Log) Info(msg string) { n.log.Info(msg, zap.String("level", string(LevelInfo))) }

// Multi fans out to several notifiers in order.
type Multi []Notifier

// Success implements Notifier
func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

// Error implements Notifier
func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Info implements Notifier
func (m Multi) Info(msg string) {
	for _, n := range m {
		n.Info(msg)
	}
}

// Message is one recorded notification.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Success implements Notifier
func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }

// Error implements Notifier
func (r *Recorder) Error(msg string) { r.add(LevelError, msg) }

// Info implements Notifier
func (r *Recorder) Info(msg string) { r.add(LevelInfo, msg) }

// Messages returns a copy of the recorded notifications.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
