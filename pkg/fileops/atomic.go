package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AtomicWrite writes data to name inside root. Parent directories are created as
// needed. The file either appears complete or the previous content is left untouched.
func AtomicWrite(root *os.Root, name string, data []byte, perm os.FileMode) error {
	return atomicReplace(root, name, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// AtomicCopy copies src to dst, both relative to root, with the same guarantees as
// AtomicWrite. The copy keeps the source's permission bits.
func AtomicCopy(root *os.Root, src, dst string) error {
	srcFile, err := root.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source is a directory: %s", src)
	}

	return atomicReplace(root, dst, info.Mode().Perm(), func(w io.Writer) error {
		_, err := io.Copy(w, srcFile)
		return err
	})
}

func atomicReplace(root *os.Root, name string, perm os.FileMode, fill func(io.Writer) error) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tempName := name + ".tmp"
	tempFile, err := root.OpenFile(tempName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	var done bool
	defer func() {
		tempFile.Close()
		if !done {
			root.Remove(tempName)
		}
	}()

	if err := fill(tempFile); err != nil {
		return fmt.Errorf("failed to write file contents: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := root.Rename(tempName, name); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	done = true
	return nil
}

// EnsureDirectoryExists creates dir and its parents inside root. It is safe to call
// repeatedly.
func EnsureDirectoryExists(root *os.Root, dir string) error {
	if err := root.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
