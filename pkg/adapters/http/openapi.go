package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

var loadDocument = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
})

// Document returns the embedded OpenAPI description of the HTTP API.
func Document() (*openapi3.T, error) {
	return loadDocument()
}

// bodySchema is the JSON schema of an operation's request body.
type bodySchema struct {
	schema *openapi3.Schema
}

func requestSchema(doc *openapi3.T, path, method string) (*bodySchema, error) {
	item := doc.Paths.Value(path)
	if item == nil {
		return nil, fmt.Errorf("openapi: path %s not described", path)
	}
	op := item.GetOperation(method)
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil, fmt.Errorf("openapi: %s %s has no request body", method, path)
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, fmt.Errorf("openapi: %s %s has no JSON schema", method, path)
	}
	return &bodySchema{schema: media.Schema.Value}, nil
}

// decode validates data against the schema before unmarshalling it into dst.
func (b *bodySchema) decode(data []byte, dst any) error {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if err := b.schema.VisitJSON(generic); err != nil {
		return fmt.Errorf("request body does not match schema: %w", err)
	}
	return json.Unmarshal(data, dst)
}
