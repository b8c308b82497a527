package constants

import (
	"path/filepath"
	"strings"
)

// Format is the extraction path a file name dispatches to.
type Format string

const (
	PDF         Format = "PDF"
	IMAGE       Format = "IMAGE"
	Unsupported Format = ""
)

// AllowedExtensions holds the recognized document extensions, lowercased sans '.'.
var AllowedExtensions = map[string]Format{
	"pdf":  PDF,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the format for an extension, or Unsupported.
func MapExtToFormat(ext string) Format {
	return AllowedExtensions[NormalizeExt(ext)]
}

// FormatForName dispatches on the suffix of a file name, case-insensitively.
func FormatForName(name string) Format {
	return MapExtToFormat(filepath.Ext(name))
}
