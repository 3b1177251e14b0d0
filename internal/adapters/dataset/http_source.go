package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mahmoodhamdi/lg-branchs/internal/domain/entities"
	"github.com/mahmoodhamdi/lg-branchs/internal/domain/providers"
)

// HTTPSource fetches <baseURL>/<dataset file> over HTTP
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a dataset source rooted at baseURL
func NewHTTPSource(baseURL string, timeout time.Duration) providers.DatasetSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the source in logs
func (s *HTTPSource) Name() string {
	return "http"
}

// Fetch downloads and decodes the locale's dataset. Non-2xx statuses fail.
func (s *HTTPSource) Fetch(ctx context.Context, locale entities.Locale) ([]entities.RawBranch, error) {
	endpoint := s.baseURL + "/" + url.PathEscape(locale.DatasetFile())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	return DecodeRecords(resp.Body)
}
