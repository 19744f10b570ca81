// Package security guards file paths that arrive through configuration
// files and stored run labels.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned for a path that resolves outside its base
// directory.
var ErrPathEscape = errors.New("security: path escapes base directory")

// ResolveWithin resolves p against baseDir. Relative paths are joined onto
// baseDir and must stay inside it once symlinks are followed; absolute
// paths are returned cleaned.
func ResolveWithin(baseDir, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("security: empty path")
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	joined := filepath.Join(baseDir, p)
	if err := WithinDirectory(joined, baseDir); err != nil {
		return "", err
	}
	return joined, nil
}

// WithinDirectory returns an error unless path, after cleaning and symlink
// resolution, lies inside dir. Paths that do not exist yet are checked
// through their nearest existing parent.
func WithinDirectory(path, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("security: resolving %s: %w", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("security: resolving %s: %w", dir, err)
	}
	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("security: resolving symlinks of %s: %w", dir, err)
	}

	rel, err := filepath.Rel(canonicalDir, canonical(absPath))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPathEscape, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscape, path, dir)
	}
	return nil
}

// canonical resolves symlinks in abs. When abs does not exist, the nearest
// existing parent is resolved and the rest re-attached, so a link such as
// dir/link/new.csv -> /etc/new.csv is still caught.
func canonical(abs string) string {
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	for check := abs; ; {
		parent := filepath.Dir(check)
		if parent == check {
			return abs
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rest, _ := filepath.Rel(parent, abs)
			return filepath.Join(resolved, rest)
		}
		check = parent
	}
}

// maxFilenameLen bounds SanitizeFilename output.
const maxFilenameLen = 128

// SanitizeFilename makes a file name from an arbitrary label: characters
// other than ASCII letters, digits, dot, underscore and dash become a
// single underscore, leading and trailing dots and underscores are
// trimmed, and the result is capped in length. An empty result is
// "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
