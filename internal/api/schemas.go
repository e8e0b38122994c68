package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const maxBodyBytes = 1 << 20

const textSchema = `{
	"type": "object",
	"properties": {"text": {"type": "string", "maxLength": 2000}},
	"required": ["text"]
}`

const batchSchemaTemplate = `{
	"type": "object",
	"properties": {
		"texts": {
			"type": "array",
			"items": {"type": "string", "maxLength": 2000},
			"minItems": 1,
			"maxItems": %d
		}
	},
	"required": ["texts"]
}`

const adviseSchema = `{
	"type": "object",
	"properties": {
		"query": {"type": "string", "minLength": 1, "maxLength": 2000},
		"city": {"type": "string", "maxLength": 100}
	},
	"required": ["query"]
}`

type schemas struct {
	text   *gojsonschema.Schema
	batch  *gojsonschema.Schema
	advise *gojsonschema.Schema
}

func compileSchemas(maxBatch int) (*schemas, error) {
	compile := func(src string) (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	}
	var s schemas
	var err error
	if s.text, err = compile(textSchema); err != nil {
		return nil, fmt.Errorf("text schema: %w", err)
	}
	if s.batch, err = compile(fmt.Sprintf(batchSchemaTemplate, maxBatch)); err != nil {
		return nil, fmt.Errorf("batch schema: %w", err)
	}
	if s.advise, err = compile(adviseSchema); err != nil {
		return nil, fmt.Errorf("advise schema: %w", err)
	}
	return &s, nil
}

// decodeValid reads the body, checks it against schema and decodes it into dst.
// The returned error is safe to show to the client.
func decodeValid(r *http.Request, schema *gojsonschema.Schema, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(body) > maxBodyBytes {
		return errors.New("request body too large")
	}
	if !json.Valid(body) {
		return errors.New("invalid JSON body")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %v", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %s", strings.Join(errs, "; "))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}
