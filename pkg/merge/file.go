package merge

import (
	"encoding/json"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/pkg/snippet"
)

// ErrInvalidFile marks an export file that could not be understood, as
// opposed to a downstream failure. Check with errors.Is.
var ErrInvalidFile = errors.Base("invalid export file")

// ExportData is the on-disk exchange format for a catalog.
type ExportData struct {
	Snippets []snippet.Snippet       `json:"snippets"`
	Rules    []snippet.TransformRule `json:"rules"`
}

// ParseExport decodes an export file. The current format is an object with
// "snippets" and "rules"; a legacy export is a bare array of snippets with
// no rules, which is still accepted.
func ParseExport(data []byte) (ExportData, error) {
	var out ExportData
	if err := json.Unmarshal(data, &out); err == nil {
		if out.Snippets != nil || out.Rules != nil {
			return out, nil
		}
		// Decoded but carried neither field: either an empty object or a
		// different shape entirely. Fall through to the legacy format.
	}

	var legacy []snippet.Snippet
	if err := json.Unmarshal(data, &legacy); err != nil {
		return ExportData{}, errors.WithMessage(ErrInvalidFile, err.Error())
	}
	return ExportData{Snippets: legacy}, nil
}

// MarshalExport encodes a catalog in the current export format.
func MarshalExport(data ExportData) ([]byte, error) {
	if data.Snippets == nil {
		data.Snippets = []snippet.Snippet{}
	}
	if data.Rules == nil {
		data.Rules = []snippet.TransformRule{}
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, errors.Errorf("encoding export: %w", err)
	}
	return out, nil
}
