package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// Doer issues one HTTP call against the endpoint's API root. Implemented by
// the raw REST transport and by the auth-intercepting client that wraps it.
type Doer interface {
	Do(ctx context.Context, req TransportRequest) (TransportResult, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
