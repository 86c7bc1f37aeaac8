package fileops

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"time"
)

// ErrScanLimit is returned when a scan finds more files than ScanOptions.MaxFiles.
var ErrScanLimit = errors.New("scan limit reached")

// ScanOptions configures Scan.
type ScanOptions struct {
	// Dir is the relative directory to start from; empty means the root itself.
	Dir string

	// MaxDepth limits recursion below Dir. Zero means only Dir's direct entries.
	MaxDepth int

	// IncludeHidden keeps entries whose name starts with '.'.
	IncludeHidden bool

	// Extensions keeps only files with one of these suffixes (e.g. ".py"). Empty keeps all.
	Extensions []string

	// SkipDirs are directory names never entered.
	SkipDirs []string

	// IncludeDirs reports directories as well as files. Extensions do not apply to them.
	IncludeDirs bool

	// MaxFiles stops the scan with ErrScanLimit once exceeded. Zero means unlimited.
	MaxFiles int
}

// DefaultSkipDirs are directories that never hold user content.
func DefaultSkipDirs() []string {
	return []string{".git", "__pycache__", "node_modules", ".cache", ".obsidian", ".trash"}
}

// FileInfo describes one scanned file.
type FileInfo struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Scan walks root and returns entries matching opts, sorted by path. Symlinks
// are not followed. Unreadable directories are skipped.
func Scan(root *os.Root, opts ScanOptions) ([]FileInfo, error) {
	start := "."
	if opts.Dir != "" {
		start = opts.Dir
	}
	startDepth := depth(start)

	var results []FileInfo
	collect := func(p string, d fs.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return nil
		}
		results = append(results, FileInfo{
			Name:    d.Name(),
			Path:    p,
			IsDir:   d.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		if opts.MaxFiles > 0 && len(results) > opts.MaxFiles {
			return ErrScanLimit
		}
		return nil
	}

	err := fs.WalkDir(root.FS(), start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p != start && errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}

		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && p != start
		if d.IsDir() {
			if p == start {
				return nil
			}
			if (hidden && !opts.IncludeHidden) || slices.Contains(opts.SkipDirs, name) {
				return fs.SkipDir
			}
			if depth(p)-startDepth > opts.MaxDepth {
				return fs.SkipDir
			}
			if opts.IncludeDirs {
				return collect(p, d)
			}
			return nil
		}

		if !d.Type().IsRegular() || (hidden && !opts.IncludeHidden) {
			return nil
		}
		if len(opts.Extensions) > 0 && !slices.Contains(opts.Extensions, path.Ext(name)) {
			return nil
		}

		return collect(p, d)
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return results, nil
}

func depth(p string) int {
	if p == "." {
		return 0
	}
	return strings.Count(p, "/") + 1
}
