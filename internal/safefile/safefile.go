// Package safefile opens user-supplied files without blocking on FIFOs or
// devices and without unbounded reads.
package safefile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotRegularFile is returned for symlinks (OpenRegular only), FIFOs,
	// devices, sockets and directories.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrTooLarge is returned by ReadFile when the file exceeds the limit.
	ErrTooLarge = errors.New("file too large")
)

// OpenRegular opens path for reading after checking, without following
// symlinks, that it names a regular file. The descriptor is checked again
// after opening to narrow the window in which the path can be swapped.
//
// The caller must close the returned file.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}
	return f, info, nil
}

// ReadFile reads at most maxSize bytes from path. Unlike OpenRegular it
// follows symlinks (mounted config files are often links), but the target
// must still be a regular file. Returned errors do not include the path.
func ReadFile(path string, maxSize int64) ([]byte, error) {
	// Check the target before opening: opening a FIFO blocks until a writer
	// appears.
	targetInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", sanitizePathError(err))
	}
	if !targetInfo.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", sanitizePathError(err))
	}
	defer f.Close()

	// Stat the descriptor, not the path.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", sanitizePathError(err))
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), maxSize)
	}

	// Read one byte past the limit to catch files that grew after Stat.
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", sanitizePathError(err))
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxSize)
	}
	return data, nil
}

// sanitizePathError strips the path from an *os.PathError.
func sanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
