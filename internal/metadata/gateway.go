// Package metadata fetches and validates the JSON sidecar written next to
// each uploaded document.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
	"github.com/kolade-a/labreports-tracker/internal/objectstore"
)

// buildSidecarSchema returns the JSON-Schema (draft 2020-12 subset) the
// sidecar must satisfy before an item is processed. patient_id is optional;
// extra fields are tolerated (upload clients attach their own).
func buildSidecarSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id":     map[string]any{"type": "string", "minLength": 1},
			"upload_date": map[string]any{"type": "string", "minLength": 1},
			"patient_id":  map[string]any{"type": "string"},
			"indicators": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "minLength": 1},
			},
		},
		"required": []string{"user_id", "upload_date", "indicators"},
	}
}

// Gateway reads sidecars from the upload bucket and validates them.
type Gateway struct {
	store  objectstore.Store
	bucket string
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewGateway(store objectstore.Store, bucket string, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := json.Marshal(buildSidecarSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("sidecar.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("sidecar.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Gateway{store: store, bucket: bucket, schema: schema, logger: logger}, nil
}

// Fetch loads and validates the sidecar at metadataKey. A missing sidecar is
// ErrMetadataMissing, a sidecar that fails the schema is ErrMetadataInvalid;
// both stop the one affected item only.
func (g *Gateway) Fetch(ctx context.Context, metadataKey string) (*entity.UploadMetadata, error) {
	body, err := g.store.Get(ctx, g.bucket, metadataKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			g.logger.Error("metadata sidecar missing", "bucket", g.bucket, "key", metadataKey)
			return nil, fmt.Errorf("sidecar %s: %w", metadataKey, common.ErrMetadataMissing)
		}
		return nil, err
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("sidecar %s: %v: %w", metadataKey, err, common.ErrMetadataInvalid)
	}
	if err := g.schema.Validate(v); err != nil {
		g.logger.Error("metadata validation failed", "key", metadataKey, "error", err)
		return nil, fmt.Errorf("sidecar %s: %v: %w", metadataKey, err, common.ErrMetadataInvalid)
	}

	var meta entity.UploadMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("sidecar %s: %v: %w", metadataKey, err, common.ErrMetadataInvalid)
	}
	return &meta, nil
}
