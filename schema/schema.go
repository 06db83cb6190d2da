package schema

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-insights/core"
)

// Kind is the declared wire type of a field.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindList   Kind = "list"
	KindMap    Kind = "map"
	KindAny    Kind = "any"
)

// Field declares one entity attribute. ReadOnly fields are stripped on
// serialize; WriteOnly fields are sent but never expected back. Default
// fills absent optional fields.
type Field struct {
	Type      Kind
	Required  bool
	ReadOnly  bool
	WriteOnly bool
	Default   any
}

// AppendTransform rewrites the serialized values right before a POST,
// letting the write shape differ from the read envelope.
type AppendTransform func(values map[string]any) map[string]any

// Schema is the declarative description of one entity type.
type Schema struct {
	Name string

	// SingleKey and ManyKey are the envelope keys for single and collection
	// payloads. Both empty means un-enveloped; a single-only resource may
	// declare SingleKey alone.
	SingleKey string
	ManyKey   string

	// UpdateMethod is the verb used for write-back; defaults to PUT. Some
	// collections update via POST.
	UpdateMethod string

	// DirectlyAddressable collections fetch items at <base>/<key> without
	// enumerating.
	DirectlyAddressable bool

	// AllowReplace permits Replace on the owning collection.
	AllowReplace bool

	Fields map[string]Field

	AppendTransform AppendTransform

	logger glog.Logger
}

func (s Schema) WithLogger(logger glog.Logger) Schema {
	s.logger = logger
	return s
}

func (s Schema) log() glog.Logger {
	return glog.Ensure(s.logger)
}

// Verb returns the update verb, defaulting to PUT.
func (s Schema) Verb() string {
	verb := strings.TrimSpace(strings.ToUpper(s.UpdateMethod))
	if verb == "" {
		return http.MethodPut
	}
	return verb
}

// Serialize produces the outbound JSON value for one entity: write-only
// fields included, read-only stripped, defaults applied, required fields
// enforced, and the single envelope added when declared.
func (s Schema) Serialize(values map[string]any) (map[string]any, error) {
	body, err := s.serializeValues(values)
	if err != nil {
		return nil, err
	}
	if s.SingleKey == "" {
		return body, nil
	}
	return map[string]any{s.SingleKey: body}, nil
}

// SerializeUnenveloped is Serialize without the envelope wrapper.
func (s Schema) SerializeUnenveloped(values map[string]any) (map[string]any, error) {
	return s.serializeValues(values)
}

func (s Schema) serializeValues(values map[string]any) (map[string]any, error) {
	body := make(map[string]any, len(values))
	for name, value := range values {
		if field, declared := s.Fields[name]; declared && field.ReadOnly {
			continue
		}
		body[name] = value
	}

	var missing []goerrors.FieldError
	for name, field := range s.Fields {
		if _, present := body[name]; present {
			continue
		}
		if field.ReadOnly {
			continue
		}
		if field.Default != nil {
			body[name] = field.Default
			continue
		}
		if field.Required {
			missing = append(missing, goerrors.FieldError{Field: name, Message: "is required"})
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i].Field < missing[j].Field })
		return nil, core.ValidationFailed(
			fmt.Sprintf("schema: %s is missing required fields", s.Name),
			missing,
			map[string]any{"schema": s.Name},
		)
	}
	return body, nil
}

// ApplyAppendTransform runs the per-schema append hook, if any.
func (s Schema) ApplyAppendTransform(values map[string]any) map[string]any {
	if s.AppendTransform == nil {
		return values
	}
	return s.AppendTransform(values)
}

// DeserializeOne strips the single envelope and validates one entity value.
func (s Schema) DeserializeOne(raw any) (map[string]any, error) {
	value := raw
	if s.SingleKey != "" {
		outer, ok := raw.(map[string]any)
		if !ok {
			return nil, core.ValidationFailed(
				fmt.Sprintf("schema: %s payload is not an object", s.Name),
				nil,
				map[string]any{"schema": s.Name},
			)
		}
		inner, present := outer[s.SingleKey]
		if !present {
			return nil, core.ValidationFailed(
				fmt.Sprintf("schema: %s payload is missing envelope key %q", s.Name, s.SingleKey),
				nil,
				map[string]any{"schema": s.Name, "envelope": s.SingleKey},
			)
		}
		value = inner
	}
	entity, ok := value.(map[string]any)
	if !ok {
		return nil, core.ValidationFailed(
			fmt.Sprintf("schema: %s entity is not an object", s.Name),
			nil,
			map[string]any{"schema": s.Name},
		)
	}
	return s.validateIncoming(entity)
}

// DeserializeMany strips the collection envelope and validates each entity.
// A map-of-key-to-object payload is normalized to a list with the outer key
// injected as id; the outer key wins over a conflicting inner id.
func (s Schema) DeserializeMany(raw any) ([]map[string]any, error) {
	value := raw
	if s.ManyKey != "" {
		outer, ok := raw.(map[string]any)
		if !ok {
			return nil, core.ValidationFailed(
				fmt.Sprintf("schema: %s collection payload is not an object", s.Name),
				nil,
				map[string]any{"schema": s.Name},
			)
		}
		inner, present := outer[s.ManyKey]
		if !present {
			return nil, core.ValidationFailed(
				fmt.Sprintf("schema: %s collection payload is missing envelope key %q", s.Name, s.ManyKey),
				nil,
				map[string]any{"schema": s.Name, "envelope": s.ManyKey},
			)
		}
		value = inner
	}

	var items []any
	switch typed := value.(type) {
	case []any:
		items = typed
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			entry, ok := typed[key].(map[string]any)
			if !ok {
				return nil, core.ValidationFailed(
					fmt.Sprintf("schema: %s keyed collection entry %q is not an object", s.Name, key),
					nil,
					map[string]any{"schema": s.Name, "key": key},
				)
			}
			normalized := make(map[string]any, len(entry)+1)
			for name, entryValue := range entry {
				normalized[name] = entryValue
			}
			if inner, present := normalized["id"]; present && fmt.Sprint(inner) != key {
				s.log().Warn("schema: keyed collection entry id differs from its key",
					"schema", s.Name, "key", key, "id", inner)
			}
			normalized["id"] = key
			items = append(items, normalized)
		}
	case nil:
		items = nil
	default:
		return nil, core.ValidationFailed(
			fmt.Sprintf("schema: %s collection payload is neither a list nor a keyed object", s.Name),
			nil,
			map[string]any{"schema": s.Name},
		)
	}

	entities := make([]map[string]any, 0, len(items))
	for i, item := range items {
		entity, ok := item.(map[string]any)
		if !ok {
			return nil, core.ValidationFailed(
				fmt.Sprintf("schema: %s collection entry %d is not an object", s.Name, i),
				nil,
				map[string]any{"schema": s.Name, "index": i},
			)
		}
		validated, err := s.validateIncoming(entity)
		if err != nil {
			return nil, err
		}
		entities = append(entities, validated)
	}
	return entities, nil
}

func (s Schema) validateIncoming(entity map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(entity))
	var badFields []goerrors.FieldError
	for name, value := range entity {
		field, declared := s.Fields[name]
		if !declared {
			if name != "id" {
				s.log().Warn("schema: unknown field in payload", "schema", s.Name, "field", name)
			}
			out[name] = value
			continue
		}
		if !matchesKind(field.Type, value) {
			badFields = append(badFields, goerrors.FieldError{
				Field:   name,
				Message: fmt.Sprintf("expected %s, got %T", field.Type, value),
			})
			continue
		}
		out[name] = value
	}
	if len(badFields) > 0 {
		sort.Slice(badFields, func(i, j int) bool { return badFields[i].Field < badFields[j].Field })
		return nil, core.ValidationFailed(
			fmt.Sprintf("schema: %s payload has mistyped fields", s.Name),
			badFields,
			map[string]any{"schema": s.Name},
		)
	}
	for name, field := range s.Fields {
		if _, present := out[name]; present {
			continue
		}
		if field.WriteOnly {
			continue
		}
		if field.Default != nil {
			out[name] = field.Default
		}
	}
	return out, nil
}

func matchesKind(kind Kind, value any) bool {
	if value == nil {
		return true
	}
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindInt:
		switch number := value.(type) {
		case float64:
			return number == float64(int64(number))
		case int, int32, int64:
			return true
		default:
			return false
		}
	case KindFloat:
		switch value.(type) {
		case float64, float32, int, int64:
			return true
		default:
			return false
		}
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindList:
		_, ok := value.([]any)
		return ok
	case KindMap:
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
