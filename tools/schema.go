package tools

// Schema helpers for building JSON Schema definitions used by capabilities
// and structured oracle responses.

// ObjectSchema creates an object schema with the given properties.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty creates a string property with optional description.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// NullableStringProperty creates a string property that may be null.
// Used for "no change" answers in structured responses.
func NullableStringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        []string{"string", "null"},
		"description": description,
	}
}

// StringArrayProperty creates an array-of-strings property.
func StringArrayProperty(description string) map[string]interface{} {
	return ArrayProperty(description, map[string]interface{}{"type": "string"})
}

// ArrayProperty creates an array property with the given item type.
func ArrayProperty(description string, itemType map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       itemType,
	}
}

// WithThought adds a thought parameter to an existing schema.
// If requireThought is true, "thought" is added to the required array.
func WithThought(schema map[string]interface{}, requireThought bool) map[string]interface{} {
	// Clone schema
	result := make(map[string]interface{})
	for k, v := range schema {
		result[k] = v
	}

	// Clone properties so the caller's map is left untouched
	props := make(map[string]interface{})
	if existing, ok := result["properties"].(map[string]interface{}); ok {
		for k, v := range existing {
			props[k] = v
		}
	}
	result["properties"] = props

	props["thought"] = StringProperty(
		"Your reasoning about why you're using this capability and what you expect to find.",
	)

	if requireThought {
		required, _ := result["required"].([]string)
		result["required"] = append(append([]string(nil), required...), "thought")
	}

	return result
}

// BuildSchemaWithThought creates an ObjectSchema and adds thought support in one call.
func BuildSchemaWithThought(properties map[string]interface{}, requireThought bool, required ...string) map[string]interface{} {
	schema := ObjectSchema(properties, required...)
	return WithThought(schema, requireThought)
}
