// Package backend holds the clients for the retail backend's GraphQL API:
// the seller-stock source, the system-configuration source, and the
// sale-creation sink. The cart engine only ever talks to the backend
// through these.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// GraphQLError carries the backend's own error messages so callers can
// surface them verbatim.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Client posts GraphQL operations to a single endpoint.
type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
}

func NewClient(endpoint, authToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		endpoint:   endpoint,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Do executes one operation and decodes the data payload into out. GraphQL
// errors returned by the backend become a *GraphQLError.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql endpoint returned status %d", resp.StatusCode)
	}

	var decoded graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}

	if len(decoded.Errors) > 0 {
		gqlErr := &GraphQLError{Messages: make([]string, len(decoded.Errors))}
		for i, e := range decoded.Errors {
			gqlErr.Messages[i] = e.Message
		}
		return gqlErr
	}

	if out != nil {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return fmt.Errorf("unmarshal graphql data: %w", err)
		}
	}
	return nil
}
