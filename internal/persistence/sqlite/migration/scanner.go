package migration

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Scanner reads migration files from a directory.
type Scanner struct {
	pattern *regexp.Regexp
}

// NewScanner returns a Scanner enforcing the {version}_{description}.sql
// naming convention.
func NewScanner() *Scanner {
	return &Scanner{
		pattern: regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`),
	}
}

// Scan reads every .sql file in dir and returns the migrations sorted by
// numeric version. Invalid names, empty files and duplicate versions all
// fail the whole scan; a half-read migration set must never run.
func (s *Scanner) Scan(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError("", dir, "read directory", err)
	}

	var migrations []Migration
	byVersion := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		matches := s.pattern.FindStringSubmatch(name)
		if matches == nil {
			return nil, newError("", name, "validate name",
				fmt.Errorf("%w: %q does not match {version}_{description}.sql", ErrInvalidFilename, name))
		}
		version, description := matches[1], matches[2]

		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, newError(version, path, "read file", err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, newError(version, path, "read file", ErrEmptyFile)
		}

		if previous, ok := byVersion[version]; ok {
			return nil, newError(version, name, "check versions",
				fmt.Errorf("%w: %s found in both %s and %s", ErrDuplicateVersion, version, previous, name))
		}
		byVersion[version] = name

		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(description, "_", " "),
			SQL:         string(content),
			Path:        path,
			Checksum:    fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionNumber(migrations[i].Version) < versionNumber(migrations[j].Version)
	})
	return migrations, nil
}

// versionNumber converts a version string to its numeric value. The scan
// pattern guarantees digits, so the conversion cannot fail.
func versionNumber(version string) int {
	n, _ := strconv.Atoi(version)
	return n
}
