package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slugify derives the URL-safe navigation name of an album from its display
// name: lowercase, spaces to hyphens. Existing slugs depend on this exact rule.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// NormalizeExtension returns the lowercased extension of filename, mapping
// every JPEG spelling to ".jpg"
func NormalizeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jpeg" {
		return ".jpg"
	}
	return ext
}

// IsJPEG reports whether filename carries a JPEG extension
func IsJPEG(filename string) bool {
	return NormalizeExtension(filename) == ".jpg"
}

// TitleCase capitalises the first letter of every word, used to turn a
// directory name into a default album name
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// FormatBytes formats byte size in human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	suffixes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}
