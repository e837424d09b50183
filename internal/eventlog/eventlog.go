// Package eventlog appends one timestamped line per user action to a flat
// text file and reads it back for display.
package eventlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"

	"netdiag/internal/diagerr"
)

// TimeFormat sorts lexically in wall-clock order.
const TimeFormat = "2006-01-02 15:04:05.000000"

// ErrNoEntries is returned by ReadAll when nothing has been logged yet.
var ErrNoEntries = errors.New("no log entries")

// Log is an append-only event log. The file is opened and closed on every
// write; no handle is held between calls.
type Log struct {
	fs   afero.Fs
	path string
	now  func() time.Time

	mu sync.Mutex
}

// Open makes sure the log file exists and is writable.
func Open(fsys afero.Fs, path string) (*Log, error) {
	l := &Log{fs: fsys, path: path, now: time.Now}

	f, err := l.openAppend()
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %v", diagerr.ErrIO, path, err)
	}
	return l, nil
}

// Path returns the location of the log file.
func (l *Log) Path() string {
	return l.path
}

// Log appends "[timestamp] message" to the file.
func (l *Log) Log(message string) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.openAppend()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %v", diagerr.ErrIO, l.path, cerr)
		}
	}()

	line := fmt.Sprintf("[%s] %s\n", l.now().Format(TimeFormat), message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("%w: write %s: %v", diagerr.ErrIO, l.path, err)
	}
	return nil
}

// ReadAll returns the log file verbatim.
func (l *Log) ReadAll() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoEntries
		}
		return "", fmt.Errorf("%w: read %s: %v", diagerr.ErrIO, l.path, err)
	}
	if len(data) == 0 {
		return "", ErrNoEntries
	}
	return string(data), nil
}

func (l *Log) openAppend() (afero.File, error) {
	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", diagerr.ErrIO, l.path, err)
	}
	return f, nil
}
