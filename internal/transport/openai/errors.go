package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// classifyAPIError sorts a provider failure into the retryable /
// non-retryable taxonomy and additionally wraps it with extra so callers
// keep their provider-specific sentinel.
//
// Transient: timeouts, connection failures, 408/409/429 and 5xx.
// Fatal: auth and validation failures (400/401/403/404/422).
func classifyAPIError(err error, extra error) error {
	class := domain.ErrProviderTransient

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &reqErr):
		class = classForStatus(reqErr.HTTPStatusCode)
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("status %d: %s: %w", reqErr.HTTPStatusCode, detail, join(class, extra))
	case errors.As(err, &apiErr):
		class = classForStatus(apiErr.HTTPStatusCode)
		return fmt.Errorf("status %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, join(class, extra))
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("timeout: %w", join(domain.ErrProviderTransient, extra))
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			return fmt.Errorf("network: %v: %w", netErr, join(domain.ErrProviderTransient, extra))
		}
		return fmt.Errorf("%v: %w", err, join(class, extra))
	}
}

func classForStatus(status int) error {
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusConflict,
		status == http.StatusTooManyRequests,
		status >= 500:
		return domain.ErrProviderTransient
	default:
		return domain.ErrProviderFatal
	}
}

func join(class, extra error) error {
	if extra == nil {
		return class
	}
	return errors.Join(class, extra)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
