// Package fileutil writes export and temp files and maps paths to names
// and URLs.
package fileutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrBadExtension rejects temp file extensions that are empty or could
// leave the temp directory.
var ErrBadExtension = errors.New("invalid temp file extension")

// tempPattern prefixes every temp file so stale ones are easy to spot.
const tempPattern = "resumd-*."

// WriteTempFile writes content to a new file in the system temp directory,
// used to hand Chrome a document by file:// URL. cleanup removes it.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if extension == "" || strings.ContainsAny(extension, "/\\\x00") {
		return "", nil, fmt.Errorf("%w: %q", ErrBadExtension, extension)
	}

	f, err := os.CreateTemp("", tempPattern+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	if err := fill(f, []byte(content)); err != nil {
		return "", nil, err
	}

	path = f.Name()
	return path, func() { _ = os.Remove(path) }, nil
}

// WriteFileAtomic writes data to a temp file next to path, then renames it
// over path, so readers never observe a partial export.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if err := fill(f, data); err != nil {
		return err
	}

	tmp := f.Name()
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// fill writes data to f and closes it. On failure f is removed.
func fill(f *os.File, data []byte) error {
	_, err := f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("writing %s: %w", f.Name(), err)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// FileURL returns the file:// URL of an absolute path.
func FileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letter
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// SafeFilename turns a document title into a file name stem. Path separators,
// characters reserved on Windows and control characters become "-".
// Returns fallback when nothing printable is left.
func SafeFilename(name, fallback string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))

	cleaned = strings.Trim(cleaned, ". ")
	if cleaned == "" || strings.Trim(cleaned, "-") == "" {
		return fallback
	}
	return cleaned
}
