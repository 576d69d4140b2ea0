// Package logfinder locates HLDS log directories and the current log file.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogDir is the environment variable naming the log directory.
const EnvLogDir = "HLDSBOT_LOGDIR"

// LogFilePattern matches the files HLDS writes with "log on", one per map
// change, e.g. L0117003.log.
const LogFilePattern = "L*.log"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// DefaultLogDirs returns candidate log directories, relative to the HLDS
// install directory, in priority order.
func DefaultLogDirs() []string {
	return []string{
		filepath.Join("valve", "logs"),
		filepath.Join("cstrike", "logs"),
		"logs",
	}
}

// FindLogDir returns the HLDS log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. HLDSBOT_LOGDIR environment variable
//  3. DefaultLogDirs() under the working directory
//
// The returned path is absolute with symlinks resolved.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveLogDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory is invalid or contains no log files", ErrLogDirNotFound)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveLogDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	for _, dir := range DefaultLogDirs() {
		if resolved := resolveLogDir(dir); resolved != "" {
			return resolved, nil
		}
	}
	return "", ErrLogDirNotFound
}

// logCandidate caches a stat result so files deleted during the scan do not
// disturb sorting.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the most recently modified log file in dir.
// Symlinks and other non-regular files are skipped.
func FindLatestLogFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, LogFilePattern))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}

	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{path: m, modTime: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	// Newest first; file names break ties since HLDS can rotate several
	// files within one mtime tick.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modTime != candidates[j].modTime {
			return candidates[i].modTime > candidates[j].modTime
		}
		return candidates[i].path > candidates[j].path
	})
	return candidates[0].path, nil
}

// resolveLogDir returns dir, absolute and with symlinks resolved, if it is a directory
// holding at least one log file, or "" otherwise.
func resolveLogDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return ""
	}
	if resolved, err = filepath.Abs(resolved); err != nil {
		return ""
	}
	matches, err := filepath.Glob(filepath.Join(resolved, LogFilePattern))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return resolved
}
