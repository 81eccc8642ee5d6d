package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// TokenStatus reports the identity and remaining quota behind a token.
type TokenStatus struct {
	Login            string    `json:"login"`
	CoreLimit        int       `json:"core_limit"`
	CoreRemaining    int       `json:"core_remaining"`
	CoreReset        time.Time `json:"core_reset"`
	GraphQLLimit     int       `json:"graphql_limit"`
	GraphQLRemaining int       `json:"graphql_remaining"`
	GraphQLReset     time.Time `json:"graphql_reset"`
}

// Inspector checks a single token against the REST and GraphQL APIs.
type Inspector struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
}

// viewerQuery reads the token owner and the GraphQL quota in one round trip.
type viewerQuery struct {
	Viewer struct {
		Login githubv4.String
	}
	RateLimit struct {
		Limit     githubv4.Int
		Remaining githubv4.Int
		ResetAt   githubv4.DateTime
	}
}

// NewInspector creates an Inspector authenticated with token. endpoint is the
// GraphQL endpoint; anything other than DefaultEndpoint is treated as a
// GitHub Enterprise server.
func NewInspector(token, endpoint string, logger logrus.FieldLogger) (*Inspector, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Minute, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if endpoint != "" && endpoint != DefaultEndpoint {
		baseURL, err := enterpriseBaseURL(endpoint)
		if err != nil {
			return nil, err
		}
		if restClient, err = restClient.WithEnterpriseURLs(baseURL, baseURL); err != nil {
			return nil, fmt.Errorf("failed to configure enterprise REST client: %w", err)
		}
		graphqlClient = githubv4.NewEnterpriseClient(endpoint, httpClient)
	}
	return &Inspector{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger.WithField("component", "inspector"),
	}, nil
}

// enterpriseBaseURL reduces a GraphQL endpoint such as
// https://ghe.example.com/api/graphql to the host root. go-github appends
// the api/v3 path itself.
func enterpriseBaseURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid GraphQL endpoint %q", endpoint)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}

// Inspect queries the token owner and both rate limit buckets.
func (i *Inspector) Inspect(ctx context.Context) (*TokenStatus, error) {
	i.logger.Debug("Fetching token owner using REST API...")
	user, resp, err := i.restClient.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token owner with REST API: %w", err)
	}

	i.logger.Debug("Fetching GraphQL rate limit...")
	var q viewerQuery
	if err := i.graphqlClient.Query(ctx, &q, nil); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL rate limit query: %w", err)
	}

	status := &TokenStatus{
		Login:            user.GetLogin(),
		CoreLimit:        resp.Rate.Limit,
		CoreRemaining:    resp.Rate.Remaining,
		CoreReset:        resp.Rate.Reset.Time,
		GraphQLLimit:     int(q.RateLimit.Limit),
		GraphQLRemaining: int(q.RateLimit.Remaining),
		GraphQLReset:     q.RateLimit.ResetAt.Time,
	}
	if string(q.Viewer.Login) != status.Login {
		i.logger.WithFields(logrus.Fields{"rest": status.Login, "graphql": q.Viewer.Login}).Warn("REST and GraphQL disagree on the token owner")
	}
	return status, nil
}
