// Package manifest reads the list of rule-list sources to convert.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads the manifest file at path.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse returns one source per non-blank line. Lines starting with '#' are
// comments.
func Parse(r io.Reader) ([]string, error) {
	var sources []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return sources, nil
}
