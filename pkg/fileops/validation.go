package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned for paths that try to leave their root.
var ErrPathTraversal = errors.New("path traversal not allowed")

// CleanRelative validates a user-supplied path and returns it cleaned, slash-separated
// and relative. Absolute paths, ".." components and empty input are rejected.
func CleanRelative(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains null bytes")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return "", fmt.Errorf("absolute paths are not allowed: %w", ErrPathTraversal)
	}

	slashed := filepath.ToSlash(path)
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", ErrPathTraversal
		}
	}

	clean := filepath.ToSlash(filepath.Clean(slashed))
	if clean == "." {
		return "", fmt.Errorf("path cannot be the root itself")
	}
	return clean, nil
}

// HasPathPrefix reports whether path equals prefix or lies below it. Both are
// slash-separated relative paths.
func HasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" || prefix == "." {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// SanitizeFilename reduces filename to a safe base name.
//
//	clean, _ := fileops.SanitizeFilename("../../etc/passwd") // "passwd"
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	clean := filepath.Base(filepath.ToSlash(filename))
	clean = strings.ReplaceAll(clean, "..", "")
	clean = strings.TrimSpace(clean)

	if clean == "" || clean == "." || clean == "/" {
		return "", fmt.Errorf("invalid filename after sanitization: %q", filename)
	}
	if strings.ContainsAny(clean, `/\`) {
		return "", fmt.Errorf("filename contains path separators: %q", clean)
	}
	return clean, nil
}

// SanitizeIdentifier keeps letters, digits, spaces, hyphens, underscores and periods,
// then joins words with underscores. Used to turn note titles into file names.
func SanitizeIdentifier(identifier string, maxLength int) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}

	var b strings.Builder
	for _, r := range identifier {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == ' ' || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}

	result := strings.Join(strings.Fields(b.String()), "_")
	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	result = strings.ReplaceAll(result, "--", "_")

	if maxLength > 0 && len(result) > maxLength {
		result = result[:maxLength]
	}
	result = strings.Trim(result, "_-.")

	if result == "" {
		return "", fmt.Errorf("identifier becomes empty after sanitization")
	}
	return result, nil
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

func checkControlCharacters(content string) error {
	for _, r := range content {
		if r == 0 {
			return fmt.Errorf("content contains null bytes")
		}
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Errorf("content contains control characters")
		}
	}
	return nil
}

// ValidateContentSecurity rejects markdown or text that carries control characters
// or HTML script injection.
func ValidateContentSecurity(content string) error {
	if err := checkControlCharacters(content); err != nil {
		return err
	}

	suspiciousPatterns := []string{
		"<script",
		"javascript:",
		"vbscript:",
		"data:text/html",
		"onload=",
		"onerror=",
		"onclick=",
	}
	lower := strings.ToLower(content)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("content contains potentially malicious pattern: %s", pattern)
		}
	}
	return nil
}

// ValidateScriptSecurity rejects scene scripts that reach outside the renderer:
// dynamic code execution, shell access and process spawning.
func ValidateScriptSecurity(source string) error {
	if err := checkControlCharacters(source); err != nil {
		return err
	}

	suspiciousPatterns := []string{
		"eval(",
		"exec(",
		"__import__(",
		"os.system(",
		"os.popen(",
		"subprocess",
		"shutil.rmtree(",
	}
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(source, pattern) {
			return fmt.Errorf("script contains disallowed call: %s", pattern)
		}
	}
	return nil
}

// ValidateSizeLimit rejects sizes above maxSize.
func ValidateSizeLimit(size, maxSize int64) error {
	if maxSize <= 0 {
		return fmt.Errorf("invalid size limit: %d", maxSize)
	}
	if size > maxSize {
		return fmt.Errorf("file size %d bytes exceeds limit %d bytes", size, maxSize)
	}
	return nil
}
