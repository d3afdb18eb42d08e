package composite

// JSONSchema describes the JSON produced by Value.MarshalJSON, for form
// builders and API documentation.
func (d *Descriptor) JSONSchema() map[string]any {
	properties := make(map[string]any, len(d.attrs))
	order := make([]string, len(d.attrs))
	for i, attr := range d.attrs {
		properties[attr.Name] = attributeSchema(attr)
		order[i] = attr.Name
	}
	return map[string]any{
		"type":          "object",
		"title":         d.typeName,
		"properties":    properties,
		"propertyOrder": order,
	}
}

func attributeSchema(attr Attribute) map[string]any {
	switch attr.Kind {
	case KindComposite:
		return nullable(attr.Type.JSONSchema())
	case KindArray:
		var items map[string]any
		if attr.Type != nil {
			items = attr.Type.JSONSchema()
		} else {
			items = scalarSchema(attr.Scalar)
		}
		return nullable(map[string]any{"type": "array", "items": items})
	}
	return nullable(scalarSchema(attr.Scalar))
}

func scalarSchema(typ ScalarType) map[string]any {
	switch typ.kind {
	case kindSmallInt, kindInteger, kindBigInt:
		return map[string]any{"type": "integer"}
	case kindReal, kindDouble:
		return map[string]any{"type": "number"}
	case kindBoolean:
		return map[string]any{"type": "boolean"}
	case kindDate:
		return map[string]any{"type": "string", "format": "date"}
	case kindTimestamp, kindTimestampTZ:
		return map[string]any{"type": "string", "format": "date-time"}
	case kindUUID:
		return map[string]any{"type": "string", "format": "uuid"}
	case kindVarchar:
		if typ.length > 0 {
			return map[string]any{"type": "string", "maxLength": typ.length}
		}
	}
	return map[string]any{"type": "string"}
}

// nullable widens a schema's type to also accept null. Composite attributes
// have no NOT NULL constraint in PostgreSQL.
func nullable(schema map[string]any) map[string]any {
	if t, ok := schema["type"].(string); ok {
		schema["type"] = []string{t, "null"}
	}
	return schema
}
