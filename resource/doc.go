// Package resource exposes server-hosted entities: collections as keyed
// mappings with enumerate/fetch/append/delete, single resources bound to a
// path with load/write, and the edit helper that writes back on success and
// discards on request. The server is the authority for membership; nothing
// is cached.
package resource
