package instruments

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The document schema keeps a fat-fingered instruments file from
// poisoning a running bot on hot reload.
const documentSchemaJSON = `{
  "type": "object",
  "required": ["instruments"],
  "properties": {
    "instruments": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["pip"],
        "properties": {
          "pip": {"type": "number", "exclusiveMinimum": 0},
          "digits": {"type": "integer", "minimum": 0, "maximum": 8},
          "bar_timeframes": {
            "type": "array",
            "items": {"type": "string", "pattern": "^(?i)(M1|M5|M15|M30|H1|H4|D1|W1|MN1)$"}
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
)

func documentSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("instruments.json", strings.NewReader(documentSchemaJSON)); err != nil {
			panic(err)
		}
		compiledSchema = compiler.MustCompile("instruments.json")
	})
	return compiledSchema
}
