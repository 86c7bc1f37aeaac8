// Package report renders pipeline results for people: markdown for notes and the
// terminal, and wrapped plain text for logs and narrow outputs.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"

	"mathviz/internal/animation"
	"mathviz/internal/pipeline"
)

// Markdown describes a result: the parsed request, the validation report and the
// generated source. A failed result renders as its error.
func Markdown(res pipeline.Result) string {
	var b strings.Builder

	if !res.Success {
		b.WriteString("## Error\n\n")
		fmt.Fprintf(&b, "`%s`\n", res.Error)
		return b.String()
	}

	if res.Snapshot != nil {
		writeRequest(&b, *res.Snapshot)
	}
	writeValidation(&b, res.Report)

	b.WriteString("## Source\n\n```python\n")
	b.WriteString(strings.TrimRight(res.SourceText, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}

func writeRequest(b *strings.Builder, snap animation.Snapshot) {
	b.WriteString("## Request\n\n")
	if snap.Description != "" {
		fmt.Fprintf(b, "> %s\n\n", snap.Description)
	}
	fmt.Fprintf(b, "- **Category:** %s\n", snap.Category)
	fmt.Fprintf(b, "- **Duration:** %s s\n", animation.FormatNumber(snap.Parameters.Duration))
	fmt.Fprintf(b, "- **Quality:** %s\n", snap.Parameters.Quality)
	fmt.Fprintf(b, "- **Style:** %s\n\n", snap.Parameters.Style)

	b.WriteString("### Objects\n\n")
	if len(snap.Objects) == 0 {
		b.WriteString("_none detected_\n\n")
	}
	for _, o := range snap.Objects {
		fmt.Fprintf(b, "- %s (\"%s\")", o.Kind, o.RawText)
		if o.HasCoordinates() {
			fmt.Fprintf(b, " at `%s`", animation.FormatCoordinates(o.Coordinates))
		}
		b.WriteString("\n")
	}
	if len(snap.Objects) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("### Transformations\n\n")
	if len(snap.Transformations) == 0 {
		b.WriteString("_none detected_\n\n")
	}
	for _, t := range snap.Transformations {
		fmt.Fprintf(b, "- %s", t.Kind)
		if details := transformDetails(t.Parameters); details != "" {
			fmt.Fprintf(b, " (%s)", details)
		}
		b.WriteString("\n")
	}
	if len(snap.Transformations) > 0 {
		b.WriteString("\n")
	}
}

func transformDetails(p animation.TransformParams) string {
	var parts []string
	if p.Angle != nil {
		parts = append(parts, fmt.Sprintf("angle %s %s", animation.FormatNumber(*p.Angle), p.AngleUnit))
	}
	if p.ReferenceObject != "" {
		parts = append(parts, "relative to "+p.ReferenceObject)
	}
	if p.Factor != nil {
		parts = append(parts, "factor "+animation.FormatNumber(*p.Factor))
	}
	return strings.Join(parts, ", ")
}

func writeValidation(b *strings.Builder, report *animation.ValidationReport) {
	b.WriteString("## Validation\n\n")
	if report == nil {
		b.WriteString("_not requested_\n\n")
		return
	}
	if report.Accurate {
		b.WriteString("**Accurate:** yes\n\n")
	} else {
		b.WriteString("**Accurate:** no\n\n")
	}
	writeList(b, "Warnings", report.Warnings)
	writeList(b, "Suggestions", report.Suggestions)
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// Summary is a plain-text digest of a result, wrapped to width. Width <= 0 disables
// wrapping.
func Summary(res pipeline.Result, width int) string {
	if !res.Success {
		return wrap("error: "+res.Error, width, 0)
	}

	var lines []string
	if snap := res.Snapshot; snap != nil {
		lines = append(lines, fmt.Sprintf("%s, %d object(s), %d transformation(s), %ss at %s quality",
			snap.Category, len(snap.Objects), len(snap.Transformations),
			animation.FormatNumber(snap.Parameters.Duration), snap.Parameters.Quality))
	}
	if r := res.Report; r != nil {
		status := "accurate"
		if !r.Accurate {
			status = "not accurate"
		}
		lines = append(lines, "validation: "+status)
		for _, w := range r.Warnings {
			lines = append(lines, "warning:\n"+wrap(w, width, 2))
		}
		for _, s := range r.Suggestions {
			lines = append(lines, "suggestion:\n"+wrap(s, width, 2))
		}
	}
	return strings.Join(lines, "\n")
}

func wrap(s string, width int, pad uint) string {
	if width > int(pad) {
		s = wordwrap.String(s, width-int(pad))
	}
	if pad > 0 {
		s = indent.String(s, pad)
	}
	return s
}

// DetectStyle picks a glamour style for the terminal. GLAMOUR_STYLE wins when set to
// a concrete style; detection that does not answer within timeout falls back to dark.
func DetectStyle(timeout time.Duration) string {
	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		out := termenv.NewOutput(os.Stdout)
		if out.HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		return "dark"
	}
}

// RenderTerminal renders markdown for a terminal of the given width.
func RenderTerminal(markdown, style string, width int) (string, error) {
	if style == "" {
		style = "dark"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
