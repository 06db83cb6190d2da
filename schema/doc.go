// Package schema declares the entity schemas of the Insights admin API:
// field definitions, single/collection envelopes, append transforms, and the
// registry the collection layer resolves schemas from. Serialization is
// strict about required outbound fields and permissive about unknown inbound
// ones.
package schema
