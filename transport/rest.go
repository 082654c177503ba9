package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultRequestTimeout bounds one poll round trip. It is shorter than
// the poll period so a slow backend cannot stack requests.
const defaultRequestTimeout = 5 * time.Second

// RESTGetter performs poll round trips with a shared HTTP client.
type RESTGetter struct {
	// Client overrides the default HTTP client when non-nil.
	Client *http.Client
}

// Get issues one GET and returns the response body. The header carries
// the engine's static API key when the profile has one.
func (g *RESTGetter) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: build request %s: %w", url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport: get %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read body %s: %w", url, err)
	}
	return body, nil
}
