// Package schema declares the typed input/output contracts for flows and
// tools as plain data, validates payloads against them, and renders the
// JSON Schema form handed to the model. Schemas are closed: unknown fields
// are rejected, and validation failure is a hard error, never a coercion.
package schema

import (
	"fmt"
)

// Type is a field's primitive kind.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Field describes one property of an object schema. Description is part of
// the contract: it steers the model toward the intended value.
type Field struct {
	Name        string
	Type        Type
	Description string
	Required    bool
	Enum        []string // TypeString only: restricts to named literals
	Items       *Field   // TypeArray: element spec (Name unused)
	Properties  *Object  // TypeObject: nested object spec
}

// Object is a closed object schema.
type Object struct {
	Name        string
	Description string
	Fields      []Field
}

// ValidationError names the offending field and the reason the payload was
// rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q %s", e.Field, e.Reason)
}

func errf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks v against the schema. Every required field must be
// present, every present field must match its declared type, and no field
// outside the schema may appear.
func (o *Object) Validate(v map[string]any) error {
	byName := make(map[string]*Field, len(o.Fields))
	for i := range o.Fields {
		byName[o.Fields[i].Name] = &o.Fields[i]
	}

	for name := range v {
		if _, ok := byName[name]; !ok {
			return errf(name, "is not part of the %s schema", o.Name)
		}
	}

	for i := range o.Fields {
		f := &o.Fields[i]
		val, present := v[f.Name]
		if !present {
			if f.Required {
				return errf(f.Name, "is required")
			}
			continue
		}
		if val == nil {
			// 不允许显式 null，缺省字段必须整体省略
			return errf(f.Name, "must be omitted rather than null")
		}
		if err := f.validate(f.Name, val); err != nil {
			return err
		}
	}
	return nil
}

func (f *Field) validate(path string, val any) error {
	switch f.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			return errf(path, "must be a string")
		}
		if len(f.Enum) > 0 {
			for _, e := range f.Enum {
				if e == s {
					return nil
				}
			}
			return errf(path, "must be one of %v", f.Enum)
		}
	case TypeNumber:
		switch val.(type) {
		case float64, float32, int, int64:
		default:
			return errf(path, "must be a number")
		}
	case TypeBoolean:
		if _, ok := val.(bool); !ok {
			return errf(path, "must be a boolean")
		}
	case TypeArray:
		arr, ok := val.([]any)
		if !ok {
			return errf(path, "must be an array")
		}
		if f.Items == nil {
			return nil
		}
		for i, e := range arr {
			if err := f.Items.validate(fmt.Sprintf("%s[%d]", path, i), e); err != nil {
				return err
			}
		}
	case TypeObject:
		obj, ok := val.(map[string]any)
		if !ok {
			return errf(path, "must be an object")
		}
		if f.Properties != nil {
			if err := f.Properties.Validate(obj); err != nil {
				return err
			}
		}
	default:
		return errf(path, "has unknown schema type %q", f.Type)
	}
	return nil
}

// JSONSchema renders the schema as the map form accepted by the OpenAI
// function-tool and response-format surfaces.
func (o *Object) JSONSchema() map[string]any {
	props := make(map[string]any, len(o.Fields))
	required := []string{}
	for i := range o.Fields {
		f := &o.Fields[i]
		props[f.Name] = f.jsonSchema()
		if f.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if o.Description != "" {
		out["description"] = o.Description
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func (f *Field) jsonSchema() map[string]any {
	out := map[string]any{}
	switch f.Type {
	case TypeString:
		out["type"] = "string"
		if len(f.Enum) > 0 {
			enum := make([]any, len(f.Enum))
			for i, e := range f.Enum {
				enum[i] = e
			}
			out["enum"] = enum
		}
	case TypeNumber:
		out["type"] = "number"
	case TypeBoolean:
		out["type"] = "boolean"
	case TypeArray:
		out["type"] = "array"
		if f.Items != nil {
			out["items"] = f.Items.jsonSchema()
		}
	case TypeObject:
		if f.Properties != nil {
			return mergeDescription(f.Properties.JSONSchema(), f.Description)
		}
		out["type"] = "object"
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	return out
}

func mergeDescription(m map[string]any, desc string) map[string]any {
	if desc != "" {
		m["description"] = desc
	}
	return m
}
