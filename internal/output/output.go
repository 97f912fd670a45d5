// Package output persists rendered rule-set documents.
package output

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CollisionError reports a source whose file name is already taken by an
// earlier source of the same batch.
type CollisionError struct {
	Name   string
	Source string
	Owner  string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s: output name %s already used by %s", e.Source, e.Name, e.Owner)
}

// Writer writes documents into a directory, one file per source.
type Writer struct {
	dir string
}

// NewWriter creates a Writer for dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write stores data under the source's file name and returns the path.
// Write to a temp file first, then rename for atomicity.
func (w *Writer) Write(source string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := FileName(source)
	target := filepath.Join(w.dir, name)
	tmp, err := os.CreateTemp(w.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", target, err)
	}
	tmpPath := tmp.Name()
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return "", fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return "", fmt.Errorf("rename %s: %w", target, err)
	}
	return target, nil
}

// Collisions groups sources that would be written to the same file name.
// The result maps each shared file name to its sources in input order;
// names used by a single source are omitted.
func Collisions(sources []string) map[string][]string {
	byName := make(map[string][]string, len(sources))
	for _, source := range sources {
		name := FileName(source)
		byName[name] = append(byName[name], source)
	}
	for name, group := range byName {
		if len(group) < 2 {
			delete(byName, name)
		}
	}
	return byName
}

// FileName derives the document file name from a source: the base name up
// to its first '.', plus ".json".
func FileName(source string) string {
	p := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(filepath.ToSlash(p))
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "/" {
		base = "ruleset"
	}
	return base + ".json"
}
