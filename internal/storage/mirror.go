package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"mathviz/internal/logging"
	"mathviz/pkg/fileops"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrExists       = errors.New("already exists")
)

const (
	// MaxReadSize caps Read.
	MaxReadSize int64 = 5 << 20
	// maxSearchFileSize caps files inspected by content search.
	maxSearchFileSize int64 = 1 << 20
	// MaxSearchResults caps Search.
	MaxSearchResults = 100
	maxSearchDepth   = 32
)

// SearchKind selects what Search matches against.
type SearchKind string

const (
	SearchFilename SearchKind = "filename"
	SearchContent  SearchKind = "content"
	SearchFolders  SearchKind = "folders"
)

// ParseSearchKind maps a tool argument to a SearchKind. Empty means filename.
func ParseSearchKind(s string) (SearchKind, error) {
	switch SearchKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", SearchFilename:
		return SearchFilename, nil
	case SearchContent:
		return SearchContent, nil
	case SearchFolders:
		return SearchFolders, nil
	}
	return "", fmt.Errorf("unknown search type %q", s)
}

// Entry is one listed or searched item.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Match is a search hit. Line and Snippet are set for content searches.
type Match struct {
	Entry
	Line    int    `json:"line,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Mirror is an allow-listed view of a directory.
type Mirror struct {
	dir    string
	root   *os.Root
	policy Policy
	logger *logging.AppLogger
}

// Open creates dir if needed and returns a Mirror confined to it.
func Open(dir string, policy Policy, logger *logging.AppLogger) (*Mirror, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("mirror root cannot be empty")
	}
	dir = fileops.ExpandPath(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mirror root: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror root: %w", err)
	}
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Mirror{dir: abs, root: root, policy: policy, logger: logger}, nil
}

func (m *Mirror) Close() error {
	return m.root.Close()
}

// Dir returns the absolute mirror directory.
func (m *Mirror) Dir() string {
	return m.dir
}

// Abs returns the absolute filesystem path of an allowed mirror path.
func (m *Mirror) Abs(p string) (string, error) {
	rel, err := m.check("resolve", p)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.dir, filepath.FromSlash(rel)), nil
}

func (m *Mirror) check(op, raw string) (string, error) {
	p := Sanitize(raw)
	allowed := m.policy.Allows(p)
	m.logger.LogAccess(op, p, allowed)
	if !allowed {
		return "", fmt.Errorf("%s %q: %w", op, raw, ErrAccessDenied)
	}
	return p, nil
}

// checkDir is check for operations that may target the mirror root or an ancestor
// of an allowed prefix.
func (m *Mirror) checkDir(op, raw string) (string, error) {
	p := Sanitize(raw)
	allowed := m.policy.Allows(p) || m.policy.leadsTo(p)
	m.logger.LogAccess(op, p, allowed)
	if !allowed {
		return "", fmt.Errorf("%s %q: %w", op, raw, ErrAccessDenied)
	}
	return p, nil
}

func (m *Mirror) visible(p string) bool {
	return m.policy.Allows(p) || m.policy.leadsTo(p)
}

func notFound(op, p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %q: %w", op, p, ErrNotFound)
	}
	return fmt.Errorf("%s %q: %w", op, p, err)
}

func dirOrRoot(p string) string {
	if p == "" {
		return "."
	}
	return p
}

// List returns the entries of dir. Listing the root or an intermediate directory
// only shows entries on the way to allowed content.
func (m *Mirror) List(dir string, includeHidden bool) ([]Entry, error) {
	p, err := m.checkDir("list", dir)
	if err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(m.root.FS(), dirOrRoot(p))
	if err != nil {
		return nil, notFound("list", p, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if !includeHidden && strings.HasPrefix(d.Name(), ".") {
			continue
		}
		child := path.Join(p, d.Name())
		if !m.visible(child) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    d.Name(),
			Path:    child,
			IsDir:   d.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// Search looks for query (case-insensitive) below under, which may be empty for the
// whole mirror. Results are capped at MaxSearchResults.
func (m *Mirror) Search(query string, kind SearchKind, under string) ([]Match, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	p, err := m.checkDir("search", under)
	if err != nil {
		return nil, err
	}

	files, err := fileops.Scan(m.root, fileops.ScanOptions{
		Dir:         p,
		MaxDepth:    maxSearchDepth,
		SkipDirs:    fileops.DefaultSkipDirs(),
		IncludeDirs: kind == SearchFolders,
	})
	if err != nil {
		return nil, notFound("search", p, err)
	}

	var matches []Match
	for _, f := range files {
		if len(matches) >= MaxSearchResults {
			break
		}
		if !m.policy.Allows(f.Path) {
			continue
		}
		entry := Entry{Name: f.Name, Path: f.Path, IsDir: f.IsDir, Size: f.Size, ModTime: f.ModTime}

		switch kind {
		case SearchFolders:
			if f.IsDir && strings.Contains(strings.ToLower(f.Name), query) {
				matches = append(matches, Match{Entry: entry})
			}
		case SearchContent:
			if f.Size > maxSearchFileSize {
				continue
			}
			if line, snippet, ok := m.grep(f.Path, query); ok {
				matches = append(matches, Match{Entry: entry, Line: line, Snippet: snippet})
			}
		default:
			if strings.Contains(strings.ToLower(f.Name), query) {
				matches = append(matches, Match{Entry: entry})
			}
		}
	}
	m.logger.Debug("Search finished", "query", query, "kind", kind, "matches", len(matches))
	return matches, nil
}

func (m *Mirror) grep(p, query string) (int, string, bool) {
	f, err := m.root.Open(p)
	if err != nil {
		return 0, "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if strings.Contains(strings.ToLower(line), query) {
			return n, strings.TrimSpace(line), true
		}
	}
	return 0, "", false
}

// Read returns the content of an allowed file no larger than MaxReadSize.
func (m *Mirror) Read(p string) (string, error) {
	rel, err := m.check("read", p)
	if err != nil {
		return "", err
	}
	info, err := m.root.Stat(rel)
	if err != nil {
		return "", notFound("read", rel, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("read %q: is a directory", rel)
	}
	if err := fileops.ValidateSizeLimit(info.Size(), MaxReadSize); err != nil {
		return "", fmt.Errorf("read %q: %w", rel, err)
	}
	data, err := m.root.ReadFile(rel)
	if err != nil {
		return "", notFound("read", rel, err)
	}
	return string(data), nil
}

// Write stores content at p atomically. Without overwrite an existing file is an
// ErrExists error.
func (m *Mirror) Write(p, content string, overwrite bool) (string, error) {
	rel, err := m.check("write", p)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := m.root.Stat(rel); err == nil {
			return "", fmt.Errorf("write %q: %w", rel, ErrExists)
		}
	}
	if err := fileops.AtomicWrite(m.root, rel, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %q: %w", rel, err)
	}
	m.logger.Info("File written", "path", rel, "bytes", len(content))
	return rel, nil
}

// Copy duplicates a file. The destination must not exist.
func (m *Mirror) Copy(src, dst string) (string, error) {
	from, err := m.check("copy", src)
	if err != nil {
		return "", err
	}
	to, err := m.check("copy", dst)
	if err != nil {
		return "", err
	}
	if _, err := m.root.Stat(to); err == nil {
		return "", fmt.Errorf("copy to %q: %w", to, ErrExists)
	}
	if err := fileops.AtomicCopy(m.root, from, to); err != nil {
		return "", notFound("copy", from, err)
	}
	m.logger.Info("File copied", "from", from, "to", to)
	return to, nil
}

// Move renames a file or directory. The destination must not exist.
func (m *Mirror) Move(src, dst string) (string, error) {
	from, err := m.check("move", src)
	if err != nil {
		return "", err
	}
	to, err := m.check("move", dst)
	if err != nil {
		return "", err
	}
	if _, err := m.root.Stat(from); err != nil {
		return "", notFound("move", from, err)
	}
	if _, err := m.root.Stat(to); err == nil {
		return "", fmt.Errorf("move to %q: %w", to, ErrExists)
	}
	if dir := path.Dir(to); dir != "." {
		if err := fileops.EnsureDirectoryExists(m.root, dir); err != nil {
			return "", err
		}
	}
	if err := m.root.Rename(from, to); err != nil {
		return "", fmt.Errorf("move %q: %w", from, err)
	}
	m.logger.Info("File moved", "from", from, "to", to)
	return to, nil
}

// Delete removes a file or an empty directory.
func (m *Mirror) Delete(p string) error {
	rel, err := m.check("delete", p)
	if err != nil {
		return err
	}
	if err := m.root.Remove(rel); err != nil {
		return notFound("delete", rel, err)
	}
	m.logger.Info("File deleted", "path", rel)
	return nil
}
