// Package datasource provides the transports that return raw dependency
// graph payloads: the analysis backend over HTTP, and local JSON files for
// offline use.
package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// GraphPath is the backend endpoint that serves dependency graphs.
const GraphPath = "/dependency_graph"

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// Source returns the raw payload for a repository identifier.
type Source interface {
	Fetch(ctx context.Context, repo string) ([]byte, error)
}

// FetchError is a transport failure or a non-2xx response.
type FetchError struct {
	Status int    // HTTP status; 0 when the request never completed
	Body   string // response body text, truncated
	Err    error  // underlying transport error, if any
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch dependency graph: %v", e.Err)
	}
	return fmt.Sprintf("fetch dependency graph: status %d, details: %s", e.Status, e.Body)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPSource posts {"repo_url": repo} to the backend.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource returns a source for baseURL. A nil client means
// http.DefaultClient; timeouts are the client's business.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
	}
}

type graphRequest struct {
	RepoURL string `json:"repo_url"`
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, repo string) ([]byte, error) {
	body, err := json.Marshal(graphRequest{RepoURL: repo})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+GraphPath, bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: err}
	}
	return data, nil
}
