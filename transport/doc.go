// Package transport implements the authenticated HTTP layer: a raw REST
// round-trip bound to one endpoint, a session store that serializes token
// acquisition, and the intercepting client that re-authenticates and replays
// a request exactly once when the server signals an expired session.
package transport
