// Package keycodec defines the one canonical mapping between a document's
// storage key, its metadata sidecar key, and its OCR-result key.
//
//	uploads/{ownerId}/{uniqueId}/{filename}
//	metadata/uploads/{ownerId}/{uniqueId}/{filename}.json
//	textract-results/uploads/{ownerId}/{uniqueId}/{basename}_textract.json
//
// Every conversion validates the expected shape and fails with
// common.ErrMalformedKey otherwise: a wrong key silently corrupts the
// cross-references between metadata, document and result, so this is a hard
// boundary rather than a best-effort parse.
package keycodec

import (
	"fmt"
	"path"
	"strings"

	"github.com/kolade-a/labreports-tracker/internal/common"
)

const (
	uploadsPrefix  = "uploads/"
	metadataPrefix = "metadata/"
	metadataSuffix = ".json"
	resultPrefix   = "textract-results/uploads/"
	resultSuffix   = "_textract.json"
)

// ParseDocumentKey splits a document key into its owner, unique id and
// filename segments, validating the fixed uploads/ shape.
func ParseDocumentKey(docKey string) (ownerID, uniqueID, filename string, err error) {
	if !strings.HasPrefix(docKey, uploadsPrefix) {
		return "", "", "", malformed(docKey, "missing uploads/ prefix")
	}
	parts := strings.Split(docKey, "/")
	if len(parts) < 4 {
		return "", "", "", malformed(docKey, "expected uploads/{owner}/{unique}/{filename}")
	}
	for _, p := range parts {
		if p == "" {
			return "", "", "", malformed(docKey, "empty path segment")
		}
	}
	return parts[1], parts[2], parts[len(parts)-1], nil
}

// Owner returns the owner segment of a document key.
func Owner(docKey string) (string, error) {
	ownerID, _, _, err := ParseDocumentKey(docKey)
	return ownerID, err
}

// MetadataKey returns the sidecar key for a document key.
func MetadataKey(docKey string) (string, error) {
	if _, _, _, err := ParseDocumentKey(docKey); err != nil {
		return "", err
	}
	return metadataPrefix + docKey + metadataSuffix, nil
}

// ResultKey returns the OCR-result key for a document key. The basename keeps
// everything before the final extension.
func ResultKey(docKey string) (string, error) {
	if _, _, _, err := ParseDocumentKey(docKey); err != nil {
		return "", err
	}
	parts := strings.Split(docKey, "/")
	filename := parts[len(parts)-1]
	base := strings.TrimSuffix(filename, path.Ext(filename))
	middle := strings.Join(parts[1:len(parts)-1], "/")
	return resultPrefix + middle + "/" + base + resultSuffix, nil
}

// DocumentKeyFromMetadataKey inverts MetadataKey: it strips the metadata/
// prefix and the .json suffix, recovering the exact document key.
func DocumentKeyFromMetadataKey(metadataKey string) (string, error) {
	if !strings.HasPrefix(metadataKey, metadataPrefix+uploadsPrefix) {
		return "", malformed(metadataKey, "missing metadata/uploads/ prefix")
	}
	if !strings.HasSuffix(metadataKey, metadataSuffix) {
		return "", malformed(metadataKey, "missing .json suffix")
	}
	docKey := strings.TrimSuffix(strings.TrimPrefix(metadataKey, metadataPrefix), metadataSuffix)
	if _, _, _, err := ParseDocumentKey(docKey); err != nil {
		return "", err
	}
	return docKey, nil
}

// DocumentKeyFromResultKey inverts ResultKey: it strips the
// textract-results/uploads/ prefix down to uploads/, drops everything from
// _textract.json onward (the engine appends page-part segments under the
// result prefix), and restores the original extension. ext must include the
// leading dot, e.g. ".jpg".
func DocumentKeyFromResultKey(resultKey, ext string) (string, error) {
	if !strings.HasPrefix(resultKey, resultPrefix) {
		return "", malformed(resultKey, "missing textract-results/uploads/ prefix")
	}
	trimmed := uploadsPrefix + strings.TrimPrefix(resultKey, resultPrefix)
	idx := strings.Index(trimmed, resultSuffix)
	if idx < 0 {
		return "", malformed(resultKey, "missing _textract.json marker")
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	docKey := trimmed[:idx] + ext
	if _, _, _, err := ParseDocumentKey(docKey); err != nil {
		return "", err
	}
	return docKey, nil
}

func malformed(key, reason string) error {
	return fmt.Errorf("key %q: %s: %w", key, reason, common.ErrMalformedKey)
}
