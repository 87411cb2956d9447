package registry

import (
	"fmt"
	"math"
	"sort"

	"github.com/cloudwego/eino/schema"
)

// FieldKind is the primitive kind an action payload field must carry.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindInteger FieldKind = "integer"
	KindArray   FieldKind = "array"
	KindObject  FieldKind = "object"
)

// Field declares one payload field of an action schema.
type Field struct {
	Kind     FieldKind
	Desc     string
	Required bool
	Enum     []string
	Default  any
}

// Schema declares an action type: its payload fields and a description the
// function-calling model sees as the tool description.
type Schema struct {
	Type   string
	Desc   string
	Fields map[string]Field
}

// ValidationResult accumulates every violation found; validation never
// short-circuits on the first error.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Registry maps action types to their schemas. Define at startup, then
// read-only; Validate and ToolInfos are safe for concurrent use.
type Registry struct {
	schemas map[string]Schema
}

func New() *Registry {
	return &Registry{schemas: map[string]Schema{}}
}

// Define registers or replaces the schema for an action type.
func (r *Registry) Define(actionType string, s Schema) {
	s.Type = actionType
	r.schemas[actionType] = s
}

// Types returns the registered action types in stable order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Schema returns the schema for an action type.
func (r *Registry) Schema(actionType string) (Schema, bool) {
	s, ok := r.schemas[actionType]
	return s, ok
}

// Validate checks data against the schema for actionType. It is pure: the
// input map is never mutated and no defaults are applied here.
func (r *Registry) Validate(actionType string, data map[string]any) ValidationResult {
	s, ok := r.schemas[actionType]
	if !ok {
		return ValidationResult{Errors: []string{fmt.Sprintf("unknown action type %q", actionType)}}
	}

	var errs []string

	for _, name := range sortedFieldNames(s) {
		f := s.Fields[name]
		if !f.Required {
			continue
		}
		v, present := data[name]
		if !present || v == nil {
			errs = append(errs, fmt.Sprintf("missing required field %q", name))
			continue
		}
		if sv, isStr := v.(string); isStr && sv == "" {
			errs = append(errs, fmt.Sprintf("required field %q is empty", name))
		}
	}

	for _, name := range sortedDataKeys(data) {
		v := data[name]
		f, declared := s.Fields[name]
		if !declared {
			errs = append(errs, fmt.Sprintf("field %q is not declared for action type %q", name, actionType))
			continue
		}
		if v == nil {
			continue // absence-equivalent; required nils are reported above
		}
		if !kindMatches(f.Kind, v) {
			errs = append(errs, fmt.Sprintf("field %q must be of kind %s", name, f.Kind))
			continue
		}
		if len(f.Enum) > 0 {
			if sv, isStr := v.(string); isStr && !contains(f.Enum, sv) {
				errs = append(errs, fmt.Sprintf("field %q value %q is not one of %v", name, sv, f.Enum))
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Normalize returns a copy of data with declared defaults filled in for
// absent optional fields. Call after Validate; validation itself stays pure.
func (r *Registry) Normalize(actionType string, data map[string]any) map[string]any {
	s, ok := r.schemas[actionType]
	if !ok {
		return data
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for name, f := range s.Fields {
		if f.Default == nil {
			continue
		}
		if _, present := out[name]; !present {
			out[name] = f.Default
		}
	}
	return out
}

// ToolInfos converts schemas into eino tool definitions for model binding.
// An empty types filter means all registered types; a subset narrows the
// tools offered to the extraction model.
func (r *Registry) ToolInfos(types ...string) []*schema.ToolInfo {
	if len(types) == 0 {
		types = r.Types()
	}
	infos := make([]*schema.ToolInfo, 0, len(types))
	for _, t := range types {
		s, ok := r.schemas[t]
		if !ok {
			continue
		}
		params := make(map[string]*schema.ParameterInfo, len(s.Fields))
		for name, f := range s.Fields {
			params[name] = &schema.ParameterInfo{
				Type:     toolDataType(f.Kind),
				Desc:     f.Desc,
				Required: f.Required,
				Enum:     f.Enum,
			}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        t,
			Desc:        s.Desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

func toolDataType(k FieldKind) schema.DataType {
	switch k {
	case KindInteger:
		return schema.Integer
	case KindArray:
		return schema.Array
	case KindObject:
		return schema.Object
	default:
		return schema.String
	}
}

// kindMatches checks a decoded JSON value against the declared kind. JSON
// numbers decode as float64, so integers accept integral float64 values.
func kindMatches(k FieldKind, v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInteger:
		switch n := v.(type) {
		case int:
			return true
		case int64:
			return true
		case float64:
			return n == math.Trunc(n)
		default:
			return false
		}
	case KindArray:
		_, ok := v.([]any)
		return ok
	case KindObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func sortedFieldNames(s Schema) []string {
	names := make([]string, 0, len(s.Fields))
	for n := range s.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedDataKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
