// Package core defines the domain records, configuration, and error envelope
// shared by the go-insights client packages: endpoints, sessions, transport
// request/result values, and the typed failure kinds every operation reports
// through.
package core
