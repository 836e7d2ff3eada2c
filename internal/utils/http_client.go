package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient wraps resty.Client so adapters can be extended with
// application-specific behaviour while exposing every resty method.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a client rooted at baseURL that sends and accepts
// JSON. A non-positive timeout leaves resty's default (no timeout).
//
// Example usage:
//
//	client := utils.NewHTTPClient("http://localhost:8080", 15*time.Second)
//	resp, err := client.R().Get("/api/version")
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &HTTPClient{Client: client}
}
