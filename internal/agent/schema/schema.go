// Package schema defines explicit schema values for structured model output
// and tool parameters, interpreted by a single shared validator.
package schema

import (
	"fmt"
	"strings"
)

// Type enumerates the value shapes a Schema can describe.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	// TypeAny accepts any JSON value, including null.
	TypeAny Type = "any"
)

// Schema describes the expected shape of a decoded JSON value.
type Schema struct {
	Type       Type
	Desc       string
	Properties map[string]*Schema
	Required   []string
	Items      *Schema
	Enum       []string
	// AnyOf declares a union: the value must validate against at least one
	// alternative. Type is ignored when AnyOf is set.
	AnyOf []*Schema
}

// ValidationError reports which field failed validation and why.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("schema validation failed at %q: %s", e.Path, e.Reason)
}

// Object builds an object schema from property schemas and required names.
func Object(desc string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Desc: desc, Properties: props, Required: required}
}

// Array builds an array schema with the given item schema.
func Array(desc string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Desc: desc, Items: items}
}

// String builds a string schema.
func String(desc string) *Schema { return &Schema{Type: TypeString, Desc: desc} }

// Number builds a number schema.
func Number(desc string) *Schema { return &Schema{Type: TypeNumber, Desc: desc} }

// Boolean builds a boolean schema.
func Boolean(desc string) *Schema { return &Schema{Type: TypeBoolean, Desc: desc} }

// Enum builds a string schema restricted to the given values.
func Enum(desc string, values ...string) *Schema {
	return &Schema{Type: TypeString, Desc: desc, Enum: values}
}

// Any builds a schema accepting any value.
func Any(desc string) *Schema { return &Schema{Type: TypeAny, Desc: desc} }

// OneOf builds a union schema over the alternatives.
func OneOf(desc string, alts ...*Schema) *Schema {
	return &Schema{Desc: desc, AnyOf: alts}
}

// Validate checks v (a decoded JSON value: map[string]any, []any, string,
// float64, bool or nil) against the schema. It returns a *ValidationError
// identifying the first failing field.
func (s *Schema) Validate(v any) error {
	return s.validate(v, "")
}

func (s *Schema) validate(v any, path string) error {
	if len(s.AnyOf) > 0 {
		reasons := make([]string, 0, len(s.AnyOf))
		for _, alt := range s.AnyOf {
			if err := alt.validate(v, path); err == nil {
				return nil
			} else {
				reasons = append(reasons, err.Error())
			}
		}
		return &ValidationError{Path: path, Reason: "no union alternative matched: " + strings.Join(reasons, "; ")}
	}

	switch s.Type {
	case TypeAny:
		return nil

	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected object, got %s", typeName(v))}
		}
		for _, name := range s.Required {
			if _, present := obj[name]; !present {
				return &ValidationError{Path: join(path, name), Reason: "required field is missing"}
			}
		}
		for name, prop := range s.Properties {
			val, present := obj[name]
			if !present {
				continue
			}
			if err := prop.validate(val, join(path, name)); err != nil {
				return err
			}
		}
		return nil

	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected array, got %s", typeName(v))}
		}
		if s.Items != nil {
			for i, item := range arr {
				if err := s.Items.validate(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
		return nil

	case TypeString:
		str, ok := v.(string)
		if !ok {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected string, got %s", typeName(v))}
		}
		if len(s.Enum) > 0 {
			for _, e := range s.Enum {
				if str == e {
					return nil
				}
			}
			return &ValidationError{Path: path, Reason: fmt.Sprintf("value %q not in enum [%s]", str, strings.Join(s.Enum, ", "))}
		}
		return nil

	case TypeNumber:
		if _, ok := v.(float64); !ok {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected number, got %s", typeName(v))}
		}
		return nil

	case TypeInteger:
		f, ok := v.(float64)
		if !ok {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected integer, got %s", typeName(v))}
		}
		if f != float64(int64(f)) {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected integer, got fractional number %v", f)}
		}
		return nil

	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return &ValidationError{Path: path, Reason: fmt.Sprintf("expected boolean, got %s", typeName(v))}
		}
		return nil

	default:
		return &ValidationError{Path: path, Reason: fmt.Sprintf("unknown schema type %q", s.Type)}
	}
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Describe renders a compact, prompt-friendly description of the schema so
// models can be instructed to match it without a JSON-schema dependency.
func (s *Schema) Describe() string {
	var b strings.Builder
	s.describe(&b, 0)
	return b.String()
}

func (s *Schema) describe(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	if len(s.AnyOf) > 0 {
		b.WriteString(indent + "one of:\n")
		for _, alt := range s.AnyOf {
			alt.describe(b, depth+1)
		}
		return
	}
	switch s.Type {
	case TypeObject:
		b.WriteString(indent + "object")
		if s.Desc != "" {
			b.WriteString(" — " + s.Desc)
		}
		b.WriteString("\n")
		for name, prop := range s.Properties {
			req := ""
			for _, r := range s.Required {
				if r == name {
					req = " (required)"
					break
				}
			}
			b.WriteString(fmt.Sprintf("%s  %s%s:\n", indent, name, req))
			prop.describe(b, depth+2)
		}
	case TypeArray:
		b.WriteString(indent + "array")
		if s.Desc != "" {
			b.WriteString(" — " + s.Desc)
		}
		b.WriteString("\n")
		if s.Items != nil {
			s.Items.describe(b, depth+1)
		}
	default:
		b.WriteString(indent + string(s.Type))
		if len(s.Enum) > 0 {
			b.WriteString(" [" + strings.Join(s.Enum, "|") + "]")
		}
		if s.Desc != "" {
			b.WriteString(" — " + s.Desc)
		}
		b.WriteString("\n")
	}
}
