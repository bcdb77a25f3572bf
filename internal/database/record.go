package database

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/bjyitu/aiexif/internal/selector"
)

// NewRecord flattens an extraction result for storage. A non-nil readErr is
// stored in place of the result.
func NewRecord(path string, res selector.Result, readErr error) (Record, error) {
	r := Record{Path: path}
	if readErr != nil {
		r.Error = readErr.Error()
		return r, nil
	}

	switch res.Kind {
	case selector.KindParameters:
		params, err := json.Marshal(res.Parameters.Parameters)
		if err != nil {
			return Record{}, fmt.Errorf("encode parameters for %s: %w", path, err)
		}
		r.SourceField = res.Source
		r.Prompt = res.Parameters.Prompt
		r.Parameters = string(params)
		if neg, ok := res.Parameters.Negative(); ok {
			r.NegativePrompt = sql.NullString{String: neg, Valid: true}
		}
	case selector.KindFields:
		for _, e := range res.Entries {
			if r.SourceField == "" {
				r.SourceField = e.Name
			}
			if e.Name == selector.FieldWorkflow {
				r.Workflow = e.Raw
			} else if r.Prompt == "" {
				r.Prompt = e.Raw
			}
		}
	}
	return r, nil
}
