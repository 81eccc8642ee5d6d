// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/naka-gawa/github-trophy/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// rateLimitMarker is the error type GitHub reports once the GraphQL quota is spent.
const rateLimitMarker = "RATE_LIMITED"

const (
	rateLimitMessage   = "API rate limit exceeded, please try again later"
	unprocessedMessage = "could not process the request"
)

// Sender issues a single GraphQL request and returns the raw user payload.
type Sender interface {
	Send(ctx context.Context, query string, variables map[string]string, token string) (json.RawMessage, error)
}

// GraphQLTransport is the concrete implementation of the Sender interface.
type GraphQLTransport struct {
	endpoint   string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

// graphQLResponse covers both the GraphQL envelope and the plain REST-style
// error object GitHub returns for rejected requests.
type graphQLResponse struct {
	Data *struct {
		User json.RawMessage `json:"user"`
	} `json:"data"`
	Errors  []graphQLError `json:"errors"`
	Message string         `json:"message"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewGraphQLTransport creates a transport posting to endpoint.
// A nil httpClient falls back to http.DefaultClient.
func NewGraphQLTransport(endpoint string, httpClient *http.Client, logger logrus.FieldLogger) *GraphQLTransport {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GraphQLTransport{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger.WithField("component", "transport"),
	}
}

// Send posts query and variables authenticated with token.
// When the response carries a user node it is returned as is. Any other
// response is classified into a *domain.ServiceError wrapped in the returned
// error. Network failures are returned unchanged.
func (t *GraphQLTransport) Send(ctx context.Context, query string, variables map[string]string, token string) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GraphQL request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	(&oauth2.Token{AccessToken: token, TokenType: "bearer"}).SetAuthHeader(req)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.WithError(err).Error("GitHub request failed")
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.WithError(err).Error("Failed to read GitHub response")
		return nil, err
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.logger.WithError(err).WithField("status", resp.StatusCode).Error("Failed to decode GitHub response")
		return nil, fmt.Errorf("failed to decode GraphQL response (%v): %w", err, domain.NewServiceError(unprocessedMessage, domain.KindNotFound))
	}
	if parsed.Data != nil && hasPayload(parsed.Data.User) {
		return parsed.Data.User, nil
	}

	svcErr := classify(parsed)
	if svcErr.Kind == domain.KindRateLimit {
		t.logger.WithField("status", resp.StatusCode).Warn("GitHub API rate limit exceeded")
	} else {
		t.logger.WithField("status", resp.StatusCode).Error("GitHub response carried no user")
	}
	return nil, fmt.Errorf("GraphQL request failed with status %d: %w", resp.StatusCode, svcErr)
}

// classify maps an unsuccessful response to a ServiceError. Either a typed
// RATE_LIMITED entry in errors or a top level message mentioning the rate
// limit counts as rate limiting; everything else is reported as not found.
func classify(resp graphQLResponse) *domain.ServiceError {
	rateLimited := false
	for _, e := range resp.Errors {
		if strings.Contains(e.Type, rateLimitMarker) {
			rateLimited = true
			break
		}
	}
	if strings.Contains(strings.ToLower(resp.Message), "rate limit") {
		rateLimited = true
	}

	if rateLimited {
		return domain.NewServiceError(rateLimitMessage, domain.KindRateLimit)
	}
	return domain.NewServiceError(unprocessedMessage, domain.KindNotFound)
}

func hasPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
