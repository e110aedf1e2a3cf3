package intake

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/routeup/routeup/core/model"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	rowSchema  *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		rowSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile stop schema: %w", schemaErr)
		}
	})
	return rowSchema, schemaErr
}

// validateStop checks one record against the embedded stop schema. The
// returned RowErrors carry field and detail only; the caller fills in file
// and line.
func validateStop(s model.StopRecord) ([]RowError, error) {
	sc, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	result, err := sc.Validate(gojsonschema.NewGoLoader(s))
	if err != nil {
		return nil, fmt.Errorf("validate stop: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	rows := make([]RowError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		rows = append(rows, RowError{Field: field, Detail: desc.Description()})
	}
	return rows, nil
}
