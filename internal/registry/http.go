package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultUserAgent is the User-Agent header sent with every request.
const DefaultUserAgent = "MultiMoon"

// ErrNetwork indicates a transport failure: connection, TLS or a body that
// could not be read.
var ErrNetwork = errors.New("network error")

// HTTPStatusError reports a response outside the 2xx range.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %s fetching %s", e.Status, e.URL)
}

// Unwrap returns ErrNetwork.
func (e *HTTPStatusError) Unwrap() error { return ErrNetwork }

// Get downloads rawURL into memory. There is no retry; the caller's context
// bounds the request.
func Get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %w", ErrNetwork, rawURL, err)
	}

	return data, nil
}
