// Package fileops provides secure file operations scoped to an *os.Root.
//
// Every function that touches the filesystem takes the root it may operate in and a
// path relative to that root. os.Root refuses any path that escapes the directory,
// including through symlinks, so callers validate intent (which subtrees are allowed)
// and the root enforces containment.
//
// # Validation
//
// Combine the static checks before touching the root:
//
//	rel, err := fileops.CleanRelative(userPath)
//	if err != nil {
//	    return fmt.Errorf("path security: %w", err)
//	}
//	if err := fileops.ValidateScriptSecurity(source); err != nil {
//	    return fmt.Errorf("content security: %w", err)
//	}
//
// # Atomic Operations
//
// AtomicWrite and AtomicCopy write to a sibling temporary file, sync it and rename it
// into place, so readers see either the old content or the new content:
//
//	err := fileops.AtomicWrite(root, "Media/Manim/anim_1a2b3c4d.py", []byte(src), 0o644)
//
// # Scanning
//
// Scan walks a root with depth, hidden-file and extension filters and returns
// relative paths in lexical order.
package fileops
