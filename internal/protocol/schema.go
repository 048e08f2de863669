package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// updateSchema constrains inbound channel messages: a known type, an
// object payload, and an optional sender id. Anything else is rejected
// before it reaches the merge queue.
const updateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"enum": ["update", "updateData", "overrideData"]},
    "data": {"type": "object"},
    "payload": {"type": "object"},
    "senderId": {"type": "string"}
  },
  "anyOf": [
    {"required": ["data"]},
    {"required": ["payload"]}
  ]
}`

var compiledUpdateSchema = mustCompile("update.schema.json", updateSchema)

func mustCompile(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("protocol: add schema %s: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("protocol: compile schema %s: %v", name, err))
	}
	return s
}

// ParseUpdate validates a raw channel message against the update schema
// and decodes it.
func ParseUpdate(raw []byte) (UpdateMsg, error) {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return UpdateMsg{}, fmt.Errorf("decode update message: %w", err)
	}
	if err := compiledUpdateSchema.Validate(generic); err != nil {
		return UpdateMsg{}, fmt.Errorf("invalid update message: %w", err)
	}

	var msg UpdateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return UpdateMsg{}, fmt.Errorf("decode update message: %w", err)
	}
	return msg, nil
}
