package stats

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// searchLog collects the step-by-step notes of one search. Sources append
// from their own goroutines.
type searchLog struct {
	mu      sync.Mutex
	entries []LogEntry
	log     *zap.Logger
}

func newSearchLog(log *zap.Logger) *searchLog {
	return &searchLog{log: log}
}

func (l *searchLog) note(msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Time: time.Now().UTC(), Note: msg})
	l.mu.Unlock()
	l.log.Debug(msg)
}

func (l *searchLog) fail(msg, debug string) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Time: time.Now().UTC(), Error: msg, Debug: debug})
	l.mu.Unlock()
	l.log.Warn(msg, zap.String("debug", debug))
}

func (l *searchLog) snapshot() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
