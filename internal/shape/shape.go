package shape

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchemaMismatch 表示候选对象与声明的结构不一致。
var ErrSchemaMismatch = errors.New("schema mismatch")

// Kind 描述字段允许的取值类型。
type Kind int

const (
	String Kind = iota
	StringList
)

// Field 声明结构中的一个具名字段。
type Field struct {
	Name        string
	Kind        Kind
	Required    bool
	Description string
}

// Shape 是一个具名的声明式结构描述：字段名 → {必填|可选, 类型}。
type Shape struct {
	Name   string
	Fields []Field
}

// MismatchError identifies the offending field of a failed validation.
type MismatchError struct {
	Shape  string
	Field  string
	Reason string
}

func (e *MismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %s", ErrSchemaMismatch, e.Shape, e.Reason)
	}
	return fmt.Sprintf("%s: %s.%s: %s", ErrSchemaMismatch, e.Shape, e.Field, e.Reason)
}

func (e *MismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// Field 按名称查找字段声明。
func (s Shape) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// JSONSchema renders the shape as a JSON Schema document.
func (s Shape) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))

	for _, f := range s.Fields {
		var prop map[string]any
		switch f.Kind {
		case StringList:
			prop = map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "pattern": `\S`},
			}
		default:
			prop = map[string]any{"type": "string"}
			if f.Required {
				prop["pattern"] = `\S`
			}
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"title":      s.Name,
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

// Validator 持有编译后的 JSON Schema。
type Validator struct {
	shape    Shape
	compiled *jsonschema.Schema
}

// Compile 编译结构描述，得到可重复使用的校验器。
func (s Shape) Compile() (*Validator, error) {
	raw, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", s.Name, err)
	}

	url := s.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", s.Name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", s.Name, err)
	}

	return &Validator{shape: s, compiled: compiled}, nil
}

// MustCompile 与 Compile 相同，但在失败时 panic，供包级变量初始化使用。
func (s Shape) MustCompile() *Validator {
	v, err := s.Compile()
	if err != nil {
		panic(err)
	}
	return v
}

// Shape returns the declaration this validator enforces.
func (v *Validator) Shape() Shape {
	return v.shape
}

// Validate checks candidate against the shape. Strings are trimmed; optional string
// fields that are null or blank are dropped. Nothing else is coerced.
func (v *Validator) Validate(candidate any) (map[string]any, error) {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return nil, &MismatchError{Shape: v.shape.Name, Reason: fmt.Sprintf("expected object, got %s", typeName(candidate))}
	}

	normalized := v.normalize(obj)
	if err := v.compiled.Validate(normalized); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			field, reason := locate(ve)
			return nil, &MismatchError{Shape: v.shape.Name, Field: field, Reason: reason}
		}
		return nil, &MismatchError{Shape: v.shape.Name, Reason: err.Error()}
	}

	return normalized, nil
}

// Decode validates candidate and unmarshals the normalized object into out.
func (v *Validator) Decode(candidate any, out any) error {
	normalized, err := v.Validate(candidate)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", v.shape.Name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", v.shape.Name, err)
	}
	return nil
}

func (v *Validator) normalize(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for key, value := range obj {
		field, declared := v.shape.Field(key)
		switch val := value.(type) {
		case string:
			trimmed := strings.TrimSpace(val)
			if declared && !field.Required && field.Kind == String && trimmed == "" {
				continue
			}
			out[key] = trimmed
		case []any:
			items := make([]any, len(val))
			for i, item := range val {
				if s, ok := item.(string); ok {
					items[i] = strings.TrimSpace(s)
				} else {
					items[i] = item
				}
			}
			out[key] = items
		case nil:
			if declared && !field.Required {
				continue
			}
			out[key] = nil
		default:
			out[key] = value
		}
	}
	return out
}

// locate 找到最深层的校验错误，并从中提取字段路径。
func locate(ve *jsonschema.ValidationError) (string, string) {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	field := strings.ReplaceAll(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/", ".")
	if strings.HasPrefix(leaf.Message, "missing properties") {
		if name := quoted(leaf.Message); name != "" {
			if field == "" {
				field = name
			} else {
				field = field + "." + name
			}
		}
	}
	return field, leaf.Message
}

func quoted(msg string) string {
	start := strings.Index(msg, "'")
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], "'")
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case []any:
		return "array"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
