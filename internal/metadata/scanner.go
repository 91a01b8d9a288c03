package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Scanner enumerates metadata records in a single directory.
type Scanner struct {
	dir string
}

// NewScanner creates a scanner for the given directory. The directory is
// validated once at construction; a missing directory is the one fatal
// startup error this system has.
func NewScanner(dir string) (*Scanner, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("metadata directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("metadata path is not a directory: %s", dir)
	}
	return &Scanner{dir: dir}, nil
}

// Dir returns the scanned directory path.
func (s *Scanner) Dir() string { return s.dir }

// Scan returns the paths of all records currently present, sorted for
// deterministic per-cycle processing order. An empty directory yields an
// empty slice, not an error; a directory deleted after startup does too
// (the next cycle simply sees no records).
func (s *Scanner) Scan() []string {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+FileSuffix))
	if err != nil {
		// Glob only errors on a malformed pattern, which a fixed
		// suffix cannot produce.
		return nil
	}
	sort.Strings(matches)
	return matches
}
