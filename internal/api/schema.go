package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// envelopeSchema names one of the embedded response schemas
type envelopeSchema string

// schemaBase keeps resource urls absolute so refs resolve the same way
// regardless of the working directory
const schemaBase = "https://boardly.invalid/schema/"

const (
	schemaSignUp envelopeSchema = schemaBase + "signup.json"
	schemaLogin  envelopeSchema = schemaBase + "login.json"
	schemaBoard  envelopeSchema = schemaBase + "board.json"
	schemaBoards envelopeSchema = schemaBase + "boards.json"
	schemaTodo   envelopeSchema = schemaBase + "todo.json"
	schemaTodos  envelopeSchema = schemaBase + "todos.json"
)

// Envelopes are checked for the fields the client relies on. Anything else
// the server adds is allowed through.
const defsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$defs": {
    "board": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "title": {"type": "string"}
      }
    },
    "todo": {
      "type": "object",
      "required": ["id", "title", "completed", "boardId"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "title": {"type": "string"},
        "description": {"type": ["string", "null"]},
        "completed": {"type": "boolean"},
        "boardId": {"type": "string"},
        "updatedAt": {"type": "string"}
      }
    },
    "user": {
      "type": "object",
      "required": ["id", "email"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "email": {"type": "string"},
        "name": {"type": ["string", "null"]}
      }
    },
    "message": {"type": ["string", "null"]}
  }
}`

var schemaSources = map[envelopeSchema]string{
	schemaSignUp: `{
  "type": "object",
  "required": ["success"],
  "properties": {"success": {"type": "boolean"}, "message": {"$ref": "defs.json#/$defs/message"}}
}`,
	schemaLogin: `{
  "type": "object",
  "required": ["token", "user"],
  "properties": {
    "token": {"type": "string", "minLength": 1},
    "user": {"$ref": "defs.json#/$defs/user"},
    "message": {"$ref": "defs.json#/$defs/message"}
  }
}`,
	schemaBoard: `{
  "type": "object",
  "required": ["board"],
  "properties": {"board": {"$ref": "defs.json#/$defs/board"}, "message": {"$ref": "defs.json#/$defs/message"}}
}`,
	schemaBoards: `{
  "type": "object",
  "required": ["boards"],
  "properties": {
    "boards": {"type": "array", "items": {"$ref": "defs.json#/$defs/board"}},
    "message": {"$ref": "defs.json#/$defs/message"}
  }
}`,
	schemaTodo: `{
  "type": "object",
  "required": ["todo"],
  "properties": {"todo": {"$ref": "defs.json#/$defs/todo"}, "message": {"$ref": "defs.json#/$defs/message"}}
}`,
	schemaTodos: `{
  "type": "object",
  "required": ["todos"],
  "properties": {
    "todos": {"type": "array", "items": {"$ref": "defs.json#/$defs/todo"}},
    "message": {"$ref": "defs.json#/$defs/message"}
  }
}`,
}

var (
	compileOnce sync.Once
	compiled    map[envelopeSchema]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaBase+"defs.json", strings.NewReader(defsSchema)); err != nil {
		compileErr = fmt.Errorf("add schema defs: %w", err)
		return
	}
	for name, src := range schemaSources {
		if err := compiler.AddResource(string(name), strings.NewReader(src)); err != nil {
			compileErr = fmt.Errorf("add schema %s: %w", name, err)
			return
		}
	}
	compiled = make(map[envelopeSchema]*jsonschema.Schema, len(schemaSources))
	for name := range schemaSources {
		s, err := compiler.Compile(string(name))
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		compiled[name] = s
	}
}

// decodeEnvelope validates raw against the named schema and decodes it into out
func decodeEnvelope(raw []byte, name envelopeSchema, out any) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if s, ok := compiled[name]; ok {
		if err := s.Validate(doc); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
