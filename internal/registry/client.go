// Package registry submits assembled graphs to the credential registry's
// class-specific publish endpoints.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/credpub/credpub/internal/model"
)

// PublicationError is a registry rejection of a submitted graph. The run
// halts further publications once one occurs.
type PublicationError struct {
	EntityID string
	Status   int
	Messages []string
}

func (e *PublicationError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("publish %s: registry rejected graph: %s", e.EntityID, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("publish %s: registry returned status %d", e.EntityID, e.Status)
}

// Client publishes graphs on behalf of one organization
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	orgCTID    string
	userAgent  string
}

// New returns a publish client for the given registry environment
func New(reg model.RegistryConfig, timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(reg.BaseURL, "/"),
		apiKey:     reg.APIKey,
		orgCTID:    reg.OrganizationCTID,
		userAgent:  userAgent,
	}
}

// PublishGraph POSTs one graph document to a class-specific endpoint.
// Non-2xx statuses and unsuccessful responses are publication failures.
func (c *Client) PublishGraph(ctx context.Context, endpoint string, graph model.GraphDocument) (*model.PublishResponse, error) {
	rootID := ""
	if len(graph.Graph) > 0 {
		rootID = graph.Graph[0].ID()
	}

	payload, err := json.Marshal(model.PublishRequest{
		OrganizationIdentifier: c.orgCTID,
		Publish:                true,
		GraphInput:             graph,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiToken "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", rootID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read publish response: %w", err)
	}

	var result model.PublishResponse
	if len(body) > 0 {
		// A rejection body may still decode; keep its messages for the error
		_ = json.Unmarshal(body, &result)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &PublicationError{EntityID: rootID, Status: resp.StatusCode, Messages: result.Messages}
	}
	if !result.Successful {
		return nil, &PublicationError{EntityID: rootID, Status: resp.StatusCode, Messages: result.Messages}
	}
	return &result, nil
}
