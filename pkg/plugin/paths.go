package plugin

import (
	"os"
	"path/filepath"
	"strings"
)

// checkFilename accepts only flat names: one path element, no separators of
// either platform, no NUL, not "." or "..", no volume prefix.
func checkFilename(name string) bool {
	switch {
	case name == "", name == ".", name == "..":
		return false
	case strings.ContainsAny(name, "/\\\x00"):
		return false
	case filepath.IsAbs(name), filepath.VolumeName(name) != "":
		return false
	}
	return true
}

// within reports whether target is root or lies beneath it, lexically.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// symlinkEscapes reports whether name inside root is a symlink pointing
// outside root. Dangling links are judged by their literal target.
func symlinkEscapes(root, name string) bool {
	full := filepath.Join(root, name)
	info, err := os.Lstat(full)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	target, err := os.Readlink(full)
	if err != nil {
		return true
	}
	realRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		realRoot = resolved
	}
	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		return !within(realRoot, resolved)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return !within(root, target) && !within(realRoot, target)
}
