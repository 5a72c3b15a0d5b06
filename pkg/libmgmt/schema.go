package libmgmt

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

const schemaURL = "libs.schema.json"

var (
	schemaOnce     sync.Once
	schemaJSON     []byte
	compiledSchema *validator.Schema
	schemaErr      error
)

// Schema returns the JSON Schema reflected from Config.
func Schema() ([]byte, error) {
	loadSchema()
	return schemaJSON, schemaErr
}

func loadSchema() {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			Anonymous:      true,
			DoNotReference: true,
			ExpandedStruct: true,
		}
		schemaJSON, schemaErr = json.MarshalIndent(r.Reflect(new(Config)), "", "  ")
		if schemaErr != nil {
			return
		}

		doc, err := validator.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		c := validator.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
}

// ValidateDocument checks raw JSON against the configuration schema.
func ValidateDocument(raw []byte) error {
	loadSchema()
	if schemaErr != nil {
		return cerrors.Wrap(schemaErr, cerrors.ErrCodeInternal, "compile library schema")
	}

	inst, err := validator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeLibMgmtInvalid, "parse library configuration").
			WithUserMessage("Invalid JSON file format")
	}
	if err := compiledSchema.Validate(inst); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeLibMgmtInvalid, "library configuration does not match schema").
			WithUserMessage("Invalid library configuration")
	}
	return nil
}
