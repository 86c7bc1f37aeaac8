package storage

import (
	"slices"
	"strings"

	"mathviz/pkg/fileops"
)

// Policy decides which mirror paths may be touched.
type Policy struct {
	// Allowed are relative path prefixes that may be accessed.
	Allowed []string
	// Forbidden are path elements (or element sequences such as "Library/Keychains")
	// that are denied wherever they appear.
	Forbidden []string
}

// DefaultPolicy mirrors the default configuration.
func DefaultPolicy() Policy {
	return Policy{
		Allowed:   []string{"Media", "MathematicalResearch", "00_MCP_INBOX", "00_MCP_ARCHIVE"},
		Forbidden: []string{"01_Totem_Networks", ".ssh", ".env", "Library/Keychains"},
	}
}

var unsafeChars = strings.NewReplacer(
	"\x00", "", "~", "", "<", "", ">", "", ":", "", `"`, "", "|", "", "?", "", "*", "",
	`\`, "/",
)

// Sanitize normalizes a user-supplied mirror path: characters that are unsafe on any
// platform are dropped, separators become slashes and "." or ".." segments vanish.
// The result is relative and may be empty, meaning the mirror root.
func Sanitize(p string) string {
	p = unsafeChars.Replace(strings.TrimSpace(p))

	var parts []string
	for _, part := range strings.Split(p, "/") {
		part = strings.TrimSpace(part)
		if part == "" || part == "." || part == ".." {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "/")
}

// forbids reports whether p contains a forbidden element sequence.
func (pol Policy) forbids(p string) bool {
	parts := strings.Split(p, "/")
	for _, f := range pol.Forbidden {
		fparts := strings.Split(Sanitize(f), "/")
		if len(fparts) == 0 || fparts[0] == "" {
			continue
		}
		for i := 0; i+len(fparts) <= len(parts); i++ {
			if slices.Equal(parts[i:i+len(fparts)], fparts) {
				return true
			}
		}
	}
	return false
}

// Allows reports whether the sanitized path p may be accessed.
func (pol Policy) Allows(p string) bool {
	if p == "" || pol.forbids(p) {
		return false
	}
	for _, a := range pol.Allowed {
		if a = Sanitize(a); a != "" && fileops.HasPathPrefix(p, a) {
			return true
		}
	}
	return false
}

// leadsTo reports whether p is an ancestor of some allowed prefix, so listing it
// shows the way to allowed content without exposing anything else.
func (pol Policy) leadsTo(p string) bool {
	if pol.forbids(p) {
		return false
	}
	for _, a := range pol.Allowed {
		if a = Sanitize(a); a != "" && fileops.HasPathPrefix(a, p) {
			return true
		}
	}
	return false
}
