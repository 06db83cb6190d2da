package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-insights/core"
	"github.com/goliatone/go-insights/schema"
)

// Caller issues classified requests: non-2xx statuses arrive as typed
// failures. Satisfied by transport.Client.
type Caller interface {
	Call(ctx context.Context, req core.TransportRequest) (core.TransportResult, error)
}

// Entity is one typed record. Path is the API-rooted location the entity was
// loaded from ("" for locally constructed entities); identity is the path.
type Entity struct {
	Values map[string]any
	Path   string
}

func NewEntity(values map[string]any) *Entity {
	if values == nil {
		values = map[string]any{}
	}
	return &Entity{Values: values}
}

func (e *Entity) Get(name string) any {
	if e == nil || e.Values == nil {
		return nil
	}
	return e.Values[name]
}

func (e *Entity) GetString(name string) string {
	value := e.Get(name)
	if value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}

func (e *Entity) Set(name string, value any) {
	if e == nil {
		return
	}
	if e.Values == nil {
		e.Values = map[string]any{}
	}
	e.Values[name] = value
}

// ID returns the entity's server-assigned key, or "".
func (e *Entity) ID() string {
	if e == nil {
		return ""
	}
	if _, present := e.Values["id"]; !present {
		return ""
	}
	return e.GetString("id")
}

// Equal reports whether two entities serialize identically under the schema.
func (e *Entity) Equal(other *Entity, s schema.Schema) (bool, error) {
	if e == nil || other == nil {
		return e == other, nil
	}
	mine, err := s.Serialize(e.Values)
	if err != nil {
		return false, err
	}
	theirs, err := s.Serialize(other.Values)
	if err != nil {
		return false, err
	}
	mineJSON, err := json.Marshal(mine)
	if err != nil {
		return false, core.WrapBadInput(err, "resource: encode entity for comparison", nil)
	}
	theirsJSON, err := json.Marshal(theirs)
	if err != nil {
		return false, core.WrapBadInput(err, "resource: encode entity for comparison", nil)
	}
	return string(mineJSON) == string(theirsJSON), nil
}
