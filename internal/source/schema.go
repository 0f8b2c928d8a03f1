package source

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/page.schema.json
var pageSchemaJSON []byte

const pageSchemaURL = "page.schema.json"

// pageSchema compiles the embedded page schema on first use.
var pageSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(pageSchemaURL, bytes.NewReader(pageSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add page schema: %w", err)
	}
	schema, err := compiler.Compile(pageSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile page schema: %w", err)
	}
	return schema, nil
})

// ValidatePage checks a decoded page entry against the page schema.
// The value must be decoded with json.Decoder.UseNumber.
func ValidatePage(v any) error {
	schema, err := pageSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	return nil
}
