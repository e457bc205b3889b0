package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// LogEntry is one call recorded by RecordingLogger.
type LogEntry struct {
	Level   string
	Message string
	KV      []interface{}
}

// RecordingLogger implements config.Logger and keeps every call for
// inspection. It is safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (l *RecordingLogger) record(level string, msg interface{}, kv []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: fmt.Sprint(msg), KV: kv})
}

func (l *RecordingLogger) Debug(msg interface{}, kv ...interface{}) { l.record("debug", msg, kv) }
func (l *RecordingLogger) Info(msg interface{}, kv ...interface{})  { l.record("info", msg, kv) }
func (l *RecordingLogger) Warn(msg interface{}, kv ...interface{})  { l.record("warn", msg, kv) }
func (l *RecordingLogger) Error(msg interface{}, kv ...interface{}) { l.record("error", msg, kv) }

// Entries returns a copy of the recorded calls at the given level, or all
// calls when level is empty.
func (l *RecordingLogger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether any recorded message contains substr.
func (l *RecordingLogger) Contains(substr string) bool {
	for _, e := range l.Entries("") {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
