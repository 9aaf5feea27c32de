package constants

import "strings"

// AllowedExtensions holds the document extensions the OCR engine accepts.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// SupportedDocument reports whether a file extension can be submitted for
// document analysis.
func SupportedDocument(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
