package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	filePrefix = "financial_analysis_"
	fileExt    = ".md"
	maxSuffix  = 1000
)

// WriteError reports a failure to persist a report.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer creates report files in Dir.
type Writer struct {
	Dir string
}

// BaseName returns the collision-free stem for a report generated at t.
func BaseName(t time.Time) string {
	return fmt.Sprintf("%s%s_%03d", filePrefix, t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
}

// Write stores data in a new file named after at and returns its path.
// An existing file is never replaced: the name gets a _2, _3, ... suffix.
func (w *Writer) Write(data []byte, at time.Time) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", &WriteError{Path: w.Dir, Err: err}
	}

	base := BaseName(at)
	for i := 1; i <= maxSuffix; i++ {
		name := base + fileExt
		if i > 1 {
			name = fmt.Sprintf("%s_%d%s", base, i, fileExt)
		}
		path := filepath.Join(w.Dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", &WriteError{Path: path, Err: err}
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", &WriteError{Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", &WriteError{Path: path, Err: err}
		}
		return path, nil
	}
	return "", &WriteError{Path: filepath.Join(w.Dir, base+fileExt), Err: fs.ErrExist}
}

// List returns report files in Dir, oldest name first.
func (w *Writer) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(w.Dir, filePrefix+"*"+fileExt))
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return matches, nil
}
