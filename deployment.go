package insights

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-insights/core"
	"github.com/goliatone/go-insights/transport"
)

const (
	deploymentNewPath  = "/deployment/new"
	deploymentWaitPath = "/deployment/waitUntilStarted"
)

// InitializeRequest describes the first admin user created on a fresh
// deployment.
type InitializeRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type deploymentBody struct {
	User InitializeRequest `json:"user"`
}

// IsInitialized probes the deployment endpoint with an empty POST: the
// server rejects the empty payload with 400 while uninitialized and with 403
// once initialization has happened.
func (c *Client) IsInitialized(ctx context.Context) (bool, error) {
	result, err := c.transport.Do(ctx, core.TransportRequest{
		Method:   http.MethodPost,
		Path:     deploymentNewPath,
		SendAuth: false,
	})
	if err != nil {
		return false, err
	}
	switch result.StatusCode {
	case http.StatusBadRequest:
		return false, nil
	case http.StatusForbidden:
		return true, nil
	default:
		return false, core.TransportFailure("insights: unexpected status from deployment probe", map[string]any{
			"status_code": result.StatusCode,
			"path":        deploymentNewPath,
		})
	}
}

// Initialize creates the first admin user on a fresh deployment and waits
// for the server to report started. A server that is already initialized
// fails with the already-initialized kind.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) error {
	if strings.TrimSpace(req.UserName) == "" {
		return core.BadInput("insights: initialize requires a user name", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return core.BadInput("insights: initialize requires an email", nil)
	}

	result, err := c.transport.Do(ctx, core.TransportRequest{
		Method:   http.MethodPost,
		Path:     deploymentNewPath,
		Body:     deploymentBody{User: req},
		SendAuth: false,
	})
	if err != nil {
		return err
	}
	if result.StatusCode == http.StatusForbidden {
		return core.AlreadyInitialized("insights: deployment is already initialized", map[string]any{
			"status_code": result.StatusCode,
		})
	}
	if err := transport.ClassifyStatus(result, http.MethodPost, deploymentNewPath); err != nil {
		return err
	}

	c.logger.Info("insights: deployment initialized, waiting for start", "user", req.UserName)
	return c.waitUntilStarted(ctx)
}

// WaitUntilStarted polls the readiness endpoint with the configured backoff
// until the server reports started or the context ends.
func (c *Client) WaitUntilStarted(ctx context.Context) error {
	return c.waitUntilStarted(ctx)
}

func (c *Client) waitUntilStarted(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		result, err := c.transport.Do(ctx, core.TransportRequest{
			Method:   http.MethodPost,
			Path:     deploymentWaitPath,
			SendAuth: false,
		})
		if err == nil && result.Success() {
			return nil
		}
		if ctx.Err() != nil {
			return core.WrapTransportFailure(ctx.Err(), "insights: readiness wait cancelled", map[string]any{
				"attempts": attempt,
			})
		}

		timer := time.NewTimer(c.backoff.Next(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return core.WrapTransportFailure(ctx.Err(), "insights: readiness wait cancelled", map[string]any{
				"attempts": attempt,
			})
		case <-timer.C:
		}
	}
}
