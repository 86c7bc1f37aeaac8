// Package notes files generated animations into a markdown knowledge vault.
//
// Notes carry YAML frontmatter so BuildIndex can group them later, wiki links to
// related notes and a dataview block that lists backlinks.
package notes

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"mathviz/internal/logging"
	"mathviz/internal/pipeline"
	"mathviz/internal/report"
	"mathviz/internal/storage"
	"mathviz/pkg/fileops"
)

const (
	visualizationsDir = "Visualizations"
	indexName         = "Index.md"
	maxTitleLength    = 200
	untagged          = "untagged"
)

// Grouping selects how BuildIndex sections notes.
type Grouping string

const (
	ByCategory Grouping = "category"
	ByTag      Grouping = "tag"
)

// ParseGrouping maps a tool argument to a Grouping. Empty means category.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(strings.ToLower(strings.TrimSpace(s))) {
	case "", ByCategory:
		return ByCategory, nil
	case ByTag:
		return ByTag, nil
	}
	return "", fmt.Errorf("unknown grouping %q (want category or tag)", s)
}

// Frontmatter is the metadata block at the top of every animation note.
type Frontmatter struct {
	Title    string    `yaml:"title"`
	Created  time.Time `yaml:"created"`
	Tags     []string  `yaml:"tags"`
	Category string    `yaml:"category,omitempty"`
	Quality  string    `yaml:"quality,omitempty"`
	Style    string    `yaml:"style,omitempty"`
	Accurate *bool     `yaml:"accurate,omitempty"`
}

// Ingestor writes notes into the vault directory of a mirror.
type Ingestor struct {
	mirror   *storage.Mirror
	vaultDir string
	logger   *logging.AppLogger
	now      func() time.Time
}

func NewIngestor(mirror *storage.Mirror, vaultDir string, logger *logging.AppLogger) (*Ingestor, error) {
	dir, err := fileops.CleanRelative(vaultDir)
	if err != nil {
		return nil, fmt.Errorf("invalid vault directory: %w", err)
	}
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Ingestor{mirror: mirror, vaultDir: dir, logger: logger, now: time.Now}, nil
}

// NotePath returns where WriteAnimationNote stores a note titled title.
func (in *Ingestor) NotePath(title string) (string, error) {
	name, err := fileops.SanitizeIdentifier(title, maxTitleLength)
	if err != nil {
		return "", fmt.Errorf("invalid note title: %w", err)
	}
	return path.Join(in.vaultDir, visualizationsDir, name+".md"), nil
}

// WriteAnimationNote renders res as a note and writes it, replacing any note with the
// same title. It returns the note's mirror path.
func (in *Ingestor) WriteAnimationNote(title string, res pipeline.Result, tags, links []string) (string, error) {
	title = strings.TrimSpace(title)
	notePath, err := in.NotePath(title)
	if err != nil {
		return "", err
	}

	content, err := in.render(title, res, tags, links)
	if err != nil {
		return "", err
	}
	if err := fileops.ValidateContentSecurity(content); err != nil {
		return "", fmt.Errorf("note rejected: %w", err)
	}

	written, err := in.mirror.Write(notePath, content, true)
	if err != nil {
		return "", err
	}
	in.logger.Info("Created note", "path", written, "title", title)
	return written, nil
}

func (in *Ingestor) render(title string, res pipeline.Result, tags, links []string) (string, error) {
	meta := Frontmatter{
		Title:   title,
		Created: in.now().UTC().Truncate(time.Second),
		Tags:    normalizeTags(tags),
	}
	if res.Snapshot != nil {
		meta.Category = res.Snapshot.Category.String()
		meta.Quality = string(res.Snapshot.Parameters.Quality)
		meta.Style = string(res.Snapshot.Parameters.Style)
	}
	if res.Report != nil {
		accurate := res.Report.Accurate
		meta.Accurate = &accurate
	}

	header, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(links) > 0 {
		b.WriteString("## Related Notes\n\n")
		for _, link := range links {
			if link = strings.TrimSpace(link); link != "" {
				fmt.Fprintf(&b, "- [[%s]]\n", link)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(report.Markdown(res))

	b.WriteString("\n## Backlinks\n\n")
	b.WriteString("```dataview\n")
	b.WriteString("LIST\n")
	fmt.Fprintf(&b, "FROM [[%s]]\n", title)
	b.WriteString("```\n")
	return b.String(), nil
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return []string{untagged}
	}
	return out
}

// IndexEntry is one note listed in the index.
type IndexEntry struct {
	Title string
	Path  string
	Meta  Frontmatter
}

// BuildIndex reads the frontmatter of every note in the vault and writes Index.md
// with one section per group. Notes without frontmatter are listed under "ungrouped".
// It returns the index path.
func (in *Ingestor) BuildIndex(grouping Grouping) (string, error) {
	notes, err := in.collect()
	if err != nil {
		return "", err
	}

	groups := map[string][]IndexEntry{}
	for _, n := range notes {
		for _, key := range groupKeys(n.Meta, grouping) {
			groups[key] = append(groups[key], n)
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString("# Mathematical Visualization Index\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", in.now().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Notes: %d | Grouping: %s\n\n", len(notes), grouping)
	for _, k := range keys {
		fmt.Fprintf(&b, "## %s\n\n", k)
		for _, n := range groups[k] {
			stem := strings.TrimSuffix(path.Base(n.Path), ".md")
			fmt.Fprintf(&b, "- [[%s|%s]]\n", stem, n.Title)
		}
		b.WriteString("\n")
	}

	indexPath := path.Join(in.vaultDir, indexName)
	written, err := in.mirror.Write(indexPath, b.String(), true)
	if err != nil {
		return "", err
	}
	in.logger.Info("Index created", "path", written, "notes", len(notes), "groups", len(keys))
	return written, nil
}

func groupKeys(meta Frontmatter, grouping Grouping) []string {
	switch grouping {
	case ByTag:
		if len(meta.Tags) > 0 {
			return meta.Tags
		}
	default:
		if meta.Category != "" {
			return []string{meta.Category}
		}
	}
	return []string{"ungrouped"}
}

func (in *Ingestor) collect() ([]IndexEntry, error) {
	matches, err := in.mirror.Search(".md", storage.SearchFilename, in.vaultDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}

	var entries []IndexEntry
	for _, m := range matches {
		if m.IsDir || !strings.HasSuffix(m.Name, ".md") || m.Path == path.Join(in.vaultDir, indexName) {
			continue
		}
		content, err := in.mirror.Read(m.Path)
		if err != nil {
			in.logger.Warn("Skipping unreadable note", "path", m.Path, "error", err)
			continue
		}

		var meta Frontmatter
		if _, err := frontmatter.Parse(bytes.NewReader([]byte(content)), &meta); err != nil {
			in.logger.Debug("Note has no frontmatter", "path", m.Path, "error", err)
			meta = Frontmatter{}
		}
		title := meta.Title
		if title == "" {
			title = strings.ReplaceAll(strings.TrimSuffix(m.Name, ".md"), "_", " ")
		}
		entries = append(entries, IndexEntry{Title: title, Path: m.Path, Meta: meta})
	}
	slices.SortFunc(entries, func(a, b IndexEntry) int { return strings.Compare(a.Path, b.Path) })
	return entries, nil
}
