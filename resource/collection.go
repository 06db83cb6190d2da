package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-insights/core"
	"github.com/goliatone/go-insights/schema"
)

// Collection is a keyed mapping view over a server collection at basePath.
// Every operation is a round trip; enumeration order follows the server and
// is not guaranteed stable.
type Collection struct {
	caller   Caller
	schema   schema.Schema
	basePath string
	logger   glog.Logger
}

func NewCollection(caller Caller, s schema.Schema, basePath string, logger glog.Logger) *Collection {
	return &Collection{
		caller:   caller,
		schema:   s,
		basePath: strings.TrimSuffix(strings.TrimSpace(basePath), "/"),
		logger:   glog.Ensure(logger),
	}
}

func (c *Collection) BasePath() string {
	return c.basePath
}

func (c *Collection) Schema() schema.Schema {
	return c.schema
}

func (c *Collection) itemPath(key string) string {
	return c.basePath + "/" + url.PathEscape(key)
}

// Items fetches and deserializes the collection summary in one GET. Each
// returned entity is bound to <base>/<key>; entries the server reports
// without an id cannot be addressed and are skipped with a warning.
func (c *Collection) Items(ctx context.Context) ([]*Entity, error) {
	result, err := c.caller.Call(ctx, core.TransportRequest{
		Method:   http.MethodGet,
		Path:     c.basePath,
		SendAuth: true,
	})
	if err != nil {
		return nil, err
	}
	values, err := c.schema.DeserializeMany(result.Parsed())
	if err != nil {
		return nil, err
	}
	entities := make([]*Entity, 0, len(values))
	for _, value := range values {
		entity := NewEntity(value)
		key := entity.ID()
		if key == "" {
			c.logger.Warn("resource: collection entry carries no id", "collection", c.basePath)
			continue
		}
		entity.Path = c.itemPath(key)
		entities = append(entities, entity)
	}
	return entities, nil
}

// Keys enumerates the collection's keys in server order.
func (c *Collection) Keys(ctx context.Context) ([]string, error) {
	entities, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entities))
	for _, entity := range entities {
		keys = append(keys, entity.ID())
	}
	return keys, nil
}

// Len counts the entries under the schema's collection envelope. An empty
// collection has length 0 and is not an error.
func (c *Collection) Len(ctx context.Context) (int, error) {
	entities, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	return len(entities), nil
}

// Get fetches one entity by key: directly at <base>/<key> for addressable
// collections, otherwise by scanning the enumeration.
func (c *Collection) Get(ctx context.Context, key string) (*Entity, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, core.BadInput("resource: collection key is required", map[string]any{"collection": c.basePath})
	}
	if c.schema.DirectlyAddressable {
		result, err := c.caller.Call(ctx, core.TransportRequest{
			Method:   http.MethodGet,
			Path:     c.itemPath(key),
			SendAuth: true,
		})
		if err != nil {
			return nil, err
		}
		values, err := c.schema.DeserializeOne(result.Parsed())
		if err != nil {
			return nil, err
		}
		entity := NewEntity(values)
		entity.Path = c.itemPath(key)
		return entity, nil
	}

	entities, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	for _, entity := range entities {
		if entity.ID() == key {
			return entity, nil
		}
	}
	return nil, core.NotFound(
		fmt.Sprintf("resource: %s has no entry %q", c.basePath, key),
		map[string]any{"collection": c.basePath, "key": key},
	)
}

// Contains reports whether Get(key) would succeed.
func (c *Collection) Contains(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if core.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Append serializes the entity, applies the schema's append transform, and
// POSTs it to the collection. The returned key comes from the response's
// top-level id, or from the deserialized entity.
func (c *Collection) Append(ctx context.Context, entity *Entity) (string, error) {
	if entity == nil {
		return "", core.BadInput("resource: entity is required for append", map[string]any{"collection": c.basePath})
	}
	serialized, err := c.schema.Serialize(entity.Values)
	if err != nil {
		return "", err
	}
	body := c.schema.ApplyAppendTransform(serialized)

	result, err := c.caller.Call(ctx, core.TransportRequest{
		Method:   http.MethodPost,
		Path:     c.basePath,
		Body:     body,
		SendAuth: true,
	})
	if err != nil {
		return "", err
	}

	key, err := appendedKey(c.schema, result.Body)
	if err != nil {
		return "", err
	}
	c.logger.Debug("resource: appended entity", "collection", c.basePath, "key", key)
	return key, nil
}

// Delete removes the entity at key. After a successful delete, deleting the
// same key again fails with a not-found error.
func (c *Collection) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return core.BadInput("resource: collection key is required", map[string]any{"collection": c.basePath})
	}
	_, err := c.caller.Call(ctx, core.TransportRequest{
		Method:   http.MethodDelete,
		Path:     c.itemPath(key),
		SendAuth: true,
	})
	return err
}

// Replace swaps the entity at key when the schema permits it.
func (c *Collection) Replace(ctx context.Context, key string, entity *Entity) error {
	if !c.schema.AllowReplace {
		return core.NotSupported(
			fmt.Sprintf("resource: %s does not support replace", c.basePath),
			map[string]any{"collection": c.basePath},
		)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return core.BadInput("resource: collection key is required", map[string]any{"collection": c.basePath})
	}
	if entity == nil {
		return core.BadInput("resource: entity is required for replace", map[string]any{"collection": c.basePath})
	}
	serialized, err := c.schema.Serialize(entity.Values)
	if err != nil {
		return err
	}
	_, err = c.caller.Call(ctx, core.TransportRequest{
		Method:   http.MethodPut,
		Path:     c.itemPath(key),
		Body:     serialized,
		SendAuth: true,
	})
	return err
}

// Resource binds a single-entity view to <base>/<key>.
func (c *Collection) Resource(key string) *Resource {
	return NewResource(c.caller, c.schema, c.itemPath(key))
}

func appendedKey(s schema.Schema, body []byte) (string, error) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", core.WrapTransportFailure(err, "resource: append response is not valid json", nil)
	}
	if id, present := decoded["id"]; present {
		return fmt.Sprint(id), nil
	}
	values, err := s.DeserializeOne(decoded)
	if err != nil {
		return "", err
	}
	entity := NewEntity(values)
	if entity.ID() == "" {
		return "", core.TransportFailure("resource: append response carries no id", map[string]any{"schema": s.Name})
	}
	return entity.ID(), nil
}
