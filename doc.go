// Package insights is a client SDK for the Insights log-analytics server's
// administrative and ingestion REST API.
//
// A Client is built from a core.Config and exposes the server's entity
// collections (licenses, users, roles, datasets, content packs) as keyed
// mappings plus single-resource views. Accessing a collection performs no
// I/O; invoking an operation on it does. Every request flows through an
// authenticated transport that acquires a session from /sessions on demand,
// replays a rejected request exactly once with a fresh bearer token, and
// serializes re-authentication across concurrent callers.
//
//	cfg := core.DefaultConfig()
//	cfg.Host = "logs.example.com"
//	cfg.Credentials = core.CredentialsConfig{Username: "admin", Password: "secret", Provider: "local"}
//
//	client, err := insights.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	datasets := client.Datasets()
//	key, err := datasets.Append(ctx, resource.NewEntity(map[string]any{"name": "ds1"}))
//
// Failures are typed through the go-errors envelope; branch on them with the
// core predicates (core.IsNotFound, core.IsConflict, core.IsAuthFailed, …).
package insights
