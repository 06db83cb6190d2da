package schema

import (
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
)

// Canonical schema names used by the facade.
const (
	NameVersion     = "version"
	NameSession     = "session"
	NameLicense     = "license"
	NameUser        = "user"
	NameRole        = "role"
	NameGroup       = "group"
	NameDataset     = "dataset"
	NameContentPack = "contentPack"
)

// Builtin returns a registry pre-loaded with the schemas of the Insights
// admin API. The logger receives unknown-field and key-mismatch warnings.
func Builtin(logger glog.Logger) *Registry {
	registry := NewRegistry()
	for _, s := range builtinSchemas() {
		// Names are distinct constants; registration cannot collide.
		_ = registry.Register(s.WithLogger(logger))
	}
	return registry
}

func builtinSchemas() []Schema {
	return []Schema{
		{
			Name: NameVersion,
			Fields: map[string]Field{
				"version":     {Type: KindString, Required: true, ReadOnly: true},
				"releaseName": {Type: KindString, ReadOnly: true},
			},
		},
		{
			Name: NameSession,
			Fields: map[string]Field{
				"userId":    {Type: KindString, ReadOnly: true},
				"sessionId": {Type: KindString, Required: true, ReadOnly: true},
				"ttl":       {Type: KindInt, ReadOnly: true},
			},
		},
		{
			Name:                NameLicense,
			SingleKey:           "license",
			ManyKey:             "licenses",
			DirectlyAddressable: true,
			Fields: map[string]Field{
				"key":        {Type: KindString, Required: true},
				"issuedTo":   {Type: KindString},
				"expiration": {Type: KindString, ReadOnly: true},
			},
			// The write shape names the field licenseKey even though reads
			// report key.
			AppendTransform: func(values map[string]any) map[string]any {
				out := make(map[string]any, len(values))
				for name, value := range values {
					out[name] = value
				}
				if inner, ok := out["license"].(map[string]any); ok {
					renamed := make(map[string]any, len(inner))
					for name, value := range inner {
						if name == "key" {
							renamed["licenseKey"] = value
							continue
						}
						renamed[name] = value
					}
					out["license"] = renamed
				}
				return out
			},
		},
		{
			Name:                NameUser,
			SingleKey:           "user",
			ManyKey:             "users",
			UpdateMethod:        http.MethodPost,
			DirectlyAddressable: true,
			Fields: map[string]Field{
				"userName": {Type: KindString, Required: true},
				"password": {Type: KindString, WriteOnly: true},
				"email":    {Type: KindString},
				"roleIds":  {Type: KindList, Default: []any{}},
			},
		},
		{
			Name:                NameRole,
			SingleKey:           "role",
			ManyKey:             "roles",
			UpdateMethod:        http.MethodPost,
			DirectlyAddressable: true,
			Fields: map[string]Field{
				"name":        {Type: KindString, Required: true},
				"permissions": {Type: KindList, Default: []any{}},
			},
		},
		{
			Name:                NameGroup,
			SingleKey:           "group",
			ManyKey:             "groups",
			UpdateMethod:        http.MethodPost,
			DirectlyAddressable: true,
			Fields: map[string]Field{
				"name":        {Type: KindString, Required: true},
				"permissions": {Type: KindList, Default: []any{}},
			},
		},
		{
			Name:                NameDataset,
			SingleKey:           "dataSet",
			ManyKey:             "dataSets",
			DirectlyAddressable: true,
			AllowReplace:        true,
			Fields: map[string]Field{
				"name":        {Type: KindString, Required: true},
				"description": {Type: KindString, Default: ""},
				"constraints": {Type: KindList, Default: []any{}},
			},
		},
		{
			Name:      NameContentPack,
			SingleKey: "contentPack",
			ManyKey:   "contentPacks",
			// Content packs are enumerated; the server does not address them
			// by key.
			DirectlyAddressable: false,
			Fields: map[string]Field{
				"name":        {Type: KindString, Required: true},
				"version":     {Type: KindString},
				"description": {Type: KindString},
			},
		},
	}
}
