package llm

import (
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	commentSchemaOnce sync.Once
	commentSchema     *jsonschema.Schema
)

// commentJSONSchema derives the JSON Schema for CommentStructure once via
// reflection, the same way kadirpekel-hector's tool definitions are
// schema-derived from Go structs rather than hand-written as JSON literals.
func commentJSONSchema() *jsonschema.Schema {
	commentSchemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			ExpandedStruct:            true,
			DoNotReference:            true,
			AllowAdditionalProperties: false,
		}
		commentSchema = reflector.Reflect(&CommentStructure{})
	})
	return commentSchema
}
