package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

const timeLayout = "2006-01-02 15:04:05,000"

// ErrorLog appends error lines to a single file and echoes them to the
// console logger. It is opened once per process and passed explicitly.
type ErrorLog struct {
	file    *os.File
	out     *log.Logger
	console bool
	now     func() time.Time
}

// Open creates or appends to the error log at path.
func Open(path string) (*ErrorLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	return &ErrorLog{file: f, out: log.New(f, "", 0), console: true, now: time.Now}, nil
}

// New writes to w without console echo. Used by tests and when no file is configured.
func New(w io.Writer) *ErrorLog {
	return &ErrorLog{out: log.New(w, "", 0), now: time.Now}
}

// Discard drops every line.
func Discard() *ErrorLog {
	return New(io.Discard)
}

// Errorf records one error line for component.
func (e *ErrorLog) Errorf(component, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	e.out.Printf("%s - %s - ERROR - %s", e.now().Format(timeLayout), component, msg)
	if e.console {
		log.Printf("[ERROR] %s: %s", component, msg)
	}
}

// Close closes the underlying file, if any.
func (e *ErrorLog) Close() error {
	if e.file == nil {
		return nil
	}
	log.Println("[INFO] closing error log")
	return e.file.Close()
}
