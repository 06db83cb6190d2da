package resource

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-insights/core"
	"github.com/goliatone/go-insights/schema"
)

// Discard, returned from an Edit callback, abandons the pending changes
// without an error. It never reaches the outermost caller.
var Discard = errors.New("resource: discard edit")

// Resource is a single-entity view bound to one API-rooted path.
type Resource struct {
	caller Caller
	schema schema.Schema
	path   string
}

func NewResource(caller Caller, s schema.Schema, path string) *Resource {
	return &Resource{
		caller: caller,
		schema: s,
		path:   strings.TrimSpace(path),
	}
}

func (r *Resource) Path() string {
	return r.path
}

// Load fetches and deserializes the entity.
func (r *Resource) Load(ctx context.Context) (*Entity, error) {
	result, err := r.caller.Call(ctx, core.TransportRequest{
		Method:   "GET",
		Path:     r.path,
		SendAuth: true,
	})
	if err != nil {
		return nil, err
	}
	values, err := r.schema.DeserializeOne(result.Parsed())
	if err != nil {
		return nil, err
	}
	entity := NewEntity(values)
	entity.Path = r.path
	return entity, nil
}

// Write serializes the entity and sends it with the schema's update verb.
func (r *Resource) Write(ctx context.Context, entity *Entity) error {
	if entity == nil {
		return core.BadInput("resource: entity is required for write", map[string]any{"path": r.path})
	}
	serialized, err := r.schema.Serialize(entity.Values)
	if err != nil {
		return err
	}
	_, err = r.caller.Call(ctx, core.TransportRequest{
		Method:   r.schema.Verb(),
		Path:     r.path,
		Body:     serialized,
		SendAuth: true,
	})
	return err
}

// Edit loads the entity, applies fn to it, and writes it back when fn
// returns nil. Returning Discard abandons the changes and yields nil; any
// other error propagates and nothing is written.
func (r *Resource) Edit(ctx context.Context, fn func(*Entity) error) error {
	if fn == nil {
		return core.BadInput("resource: edit callback is required", map[string]any{"path": r.path})
	}
	entity, err := r.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(entity); err != nil {
		if errors.Is(err, Discard) {
			return nil
		}
		return err
	}
	return r.Write(ctx, entity)
}
