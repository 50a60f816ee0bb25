package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/codechat-ai/codebase-chat/internal/model"
)

// mapStatus translates a provider HTTP status into the error taxonomy,
// retaining the original diagnostic for logs.
func mapStatus(provider string, status int, err error) error {
	switch {
	case status == 401 || status == 403:
		return model.WrapError(model.CodeAuthentication,
			fmt.Sprintf("%s rejected the API key; check your credentials", provider), err)
	case status == 429:
		return model.WrapError(model.CodeRateLimited,
			fmt.Sprintf("%s rate limit exceeded; try again shortly", provider), err)
	case status == 408 || status == 504:
		return model.WrapError(model.CodeTimeout,
			fmt.Sprintf("request to %s timed out", provider), err)
	default:
		return model.WrapError(model.CodeUnknownProvider,
			fmt.Sprintf("%s request failed: %v", provider, err), err)
	}
}

// mapTransport translates transport-layer failures (no HTTP response) into
// the error taxonomy.
func mapTransport(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.WrapError(model.CodeTimeout,
			fmt.Sprintf("request to %s timed out", provider), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.WrapError(model.CodeTimeout,
			fmt.Sprintf("request to %s timed out", provider), err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return model.WrapError(model.CodeConnection,
			fmt.Sprintf("could not connect to %s; check your network", provider), err)
	}
	return model.WrapError(model.CodeUnknownProvider,
		fmt.Sprintf("%s request failed: %v", provider, err), err)
}
