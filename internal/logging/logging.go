// Package logging wraps the standard library's log.Logger with the
// session-scoped ring buffer the history/analytics views read from. No
// complete example repo in the retrieval pack wires up a structured
// logger (zap/zerolog only appear in retrieval metadata for standalone
// files, never in a full repo's go.mod), so this stays on stdlib log,
// the same choice the teacher's own cmd/worker and cmd/cmux make.
package logging

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

const bufferCap = 100

// Record is one log line, kept in memory for the history/analytics views
// in addition to being written through to the stdlib logger.
type Record struct {
	Time     time.Time
	Level    string
	Category string
	Message  string
}

var (
	mu     sync.Mutex
	buf    []Record
	logger = log.New(os.Stderr, "", log.LstdFlags|log.LUTC)
)

// SetOutput redirects the stdlib logger from stderr to path, so a
// `history` CLI invocation in a later process can tail what a `run` or
// `serve` process logged.
func SetOutput(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	logger.SetOutput(f)
	return nil
}

// Log appends a record to the ring buffer (dropping the oldest entry once
// full, FIFO) and writes it through to the logger's output (stderr unless
// SetOutput redirected it).
func Log(level, category, message string) {
	mu.Lock()
	buf = append(buf, Record{Time: time.Now().UTC(), Level: level, Category: category, Message: message})
	if len(buf) > bufferCap {
		buf = buf[len(buf)-bufferCap:]
	}
	mu.Unlock()

	logger.Printf("[%s] [%s] %s", level, category, message)
}

func Logf(level, category, format string, args ...interface{}) {
	Log(level, category, fmt.Sprintf(format, args...))
}

// Buffer returns a copy of the in-memory ring buffer.
func Buffer() []Record {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Record, len(buf))
	copy(out, buf)
	return out
}

// Clear empties the ring buffer, called alongside history.Clear when a
// session starts a new goal.
func Clear() {
	mu.Lock()
	buf = nil
	mu.Unlock()
}
