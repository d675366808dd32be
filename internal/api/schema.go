package api

import "github.com/google/jsonschema-go/jsonschema"

// SearchRequestSchema returns the JSON Schema for SearchRequest, inferred
// from its struct tags. A future MCP façade would register this as a
// tool's input schema without needing a duplicate hand-written copy.
func SearchRequestSchema() (*jsonschema.Schema, error) {
	return jsonschema.For[SearchRequest](nil)
}

// CheckConnectionRequestSchema returns the JSON Schema for
// CheckConnectionRequest.
func CheckConnectionRequestSchema() (*jsonschema.Schema, error) {
	return jsonschema.For[CheckConnectionRequest](nil)
}
