package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 1 << 20

var (
	chatRequestSchema = mustSchema(`{
		"type": "object",
		"required": ["user_id", "session_id", "query"],
		"properties": {
			"user_id":    {"type": "string", "minLength": 1},
			"session_id": {"type": "string", "minLength": 1},
			"query":      {"type": "string", "minLength": 1}
		}
	}`)

	createSessionSchema = mustSchema(`{
		"type": "object",
		"required": ["user_id"],
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"title":   {"type": "string"}
		}
	}`)

	updateTitleSchema = mustSchema(`{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1}
		}
	}`)

	generateQASchema = mustSchema(`{
		"type": "object",
		"properties": {
			"questions": {"type": "integer", "minimum": 1, "maximum": 50}
		}
	}`)
)

func mustSchema(def string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}

// errEmptyBody is returned by decodeJSON when the body is absent
var errEmptyBody = errors.New("request body is required")

// decodeJSON validates the request body against schema and decodes it into dst.
// An empty body is accepted as "{}" when allowEmpty is set.
func decodeJSON(r *http.Request, schema *gojsonschema.Schema, dst any, allowEmpty bool) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if !allowEmpty {
			return errEmptyBody
		}
		body = []byte("{}")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.New("invalid request body")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}
