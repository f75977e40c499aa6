package orchestrators

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/domain/customfield"
)

// ImportRegistryInput carries a raw field-setup payload in any accepted shape.
type ImportRegistryInput struct {
	InstituteID string
	Payload     []byte
	DryRun      bool
}

// ImportRegistryResult reports what an import did or would do.
type ImportRegistryResult struct {
	Fields []customfield.Field `json:"fields"`
	DryRun bool                `json:"dry_run"`
}

// ImportRegistryDeps holds dependencies for ImportRegistry.
type ImportRegistryDeps struct {
	CustomFieldStore CustomFieldStoreForOrchestrator
}

// ExecuteImportRegistry replaces an institute's custom-field registry.
// PRE: InstituteID is non-empty; Payload is a bare array, {"data": [...]} or {"result": [...]}
// POST: The stored registry equals the decoded fields unless DryRun is set
// INVARIANT: a malformed payload never clears the existing registry
func ExecuteImportRegistry(ctx context.Context, input ImportRegistryInput, deps ImportRegistryDeps) (ImportRegistryResult, error) {
	if strings.TrimSpace(input.InstituteID) == "" {
		return ImportRegistryResult{}, errors.New("institute id is required")
	}
	fields, err := customfield.DecodeSetup(input.Payload)
	if err != nil {
		return ImportRegistryResult{}, err
	}
	for i := range fields {
		if err := fields[i].Validate(); err != nil {
			return ImportRegistryResult{}, errors.Wrapf(err, "field %d", i+1)
		}
	}

	res := ImportRegistryResult{Fields: fields, DryRun: input.DryRun}
	if fields == nil {
		res.Fields = []customfield.Field{}
	}
	if input.DryRun {
		return res, nil
	}
	if err := deps.CustomFieldStore.ReplaceAll(ctx, input.InstituteID, res.Fields); err != nil {
		return ImportRegistryResult{}, errors.Wrap(err, "replace registry")
	}
	zap.S().Infow("registry_imported", "institute_id", input.InstituteID, "fields", len(res.Fields))
	return res, nil
}
