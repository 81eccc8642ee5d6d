package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/naka-gawa/github-trophy/internal/config"
	"github.com/naka-gawa/github-trophy/internal/domain"
	"github.com/naka-gawa/github-trophy/internal/retry"
	"github.com/naka-gawa/github-trophy/internal/schema"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockSender is a mock implementation of the gateway.Sender interface.
type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, query string, variables map[string]string, token string) (json.RawMessage, error) {
	args := m.Called(ctx, query, variables, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

const (
	repositoryPayload  = `{"repositories":{"totalCount":2,"nodes":[{"languages":{"nodes":[{"name":"Go"}]},"stargazers":{"totalCount":8}}]}}`
	activityPayload    = `{"createdAt":"2018-05-01T00:00:00Z","contributionsCollection":{"totalCommitContributions":10,"restrictedContributionsCount":1,"totalPullRequestReviewContributions":2},"organizations":{"totalCount":1},"followers":{"totalCount":4}}`
	issuePayload       = `{"openIssues":{"totalCount":1},"closedIssues":{"totalCount":2}}`
	pullRequestPayload = `{"pullRequests":{"totalCount":6}}`
)

var (
	vars        = map[string]string{"username": "octocat"}
	rateLimited = fmt.Errorf("GraphQL request failed with status 200: %w", domain.NewServiceError("API rate limit exceeded", domain.KindRateLimit))
	notFound    = fmt.Errorf("GraphQL request failed with status 200: %w", domain.NewServiceError("could not process the request", domain.KindNotFound))
)

func newTestAggregator(sender *mockSender, tokens ...string) (*Aggregator, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	noSleep := retry.WithSleep(func(ctx context.Context, d time.Duration) error { return nil })
	return NewAggregator(sender, config.NewTokenPool(tokens...), time.Second, logger, noSleep), hook
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestAggregator_RequestUserInfo_AllSucceed(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, schema.QueryUserRepository, vars, "token-a").Return(json.RawMessage(repositoryPayload), nil).Once()
	sender.On("Send", mock.Anything, schema.QueryUserActivity, vars, "token-a").Return(json.RawMessage(activityPayload), nil).Once()
	sender.On("Send", mock.Anything, schema.QueryUserIssue, vars, "token-a").Return(json.RawMessage(issuePayload), nil).Once()
	sender.On("Send", mock.Anything, schema.QueryUserPullRequest, vars, "token-a").Return(json.RawMessage(pullRequestPayload), nil).Once()
	aggregator, _ := newTestAggregator(sender, "token-a", "token-b")

	info, err := aggregator.RequestUserInfo(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Equal(t, &domain.UserInfo{
		Activity:    decode[domain.GitHubUserActivity](t, activityPayload),
		Issue:       decode[domain.GitHubUserIssue](t, issuePayload),
		PullRequest: decode[domain.GitHubUserPullRequest](t, pullRequestPayload),
		Repository:  decode[domain.GitHubUserRepository](t, repositoryPayload),
	}, info)
	sender.AssertExpectations(t)
}

func TestAggregator_RequestUserInfo_RepositoryFailsFast(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, schema.QueryUserRepository, vars, "token-a").Return(nil, notFound).Once()
	sender.On("Send", mock.Anything, schema.QueryUserRepository, vars, "token-b").Return(nil, rateLimited).Once()
	aggregator, _ := newTestAggregator(sender, "token-a", "token-b")

	info, err := aggregator.RequestUserInfo(context.Background(), "octocat")

	assert.Nil(t, info)
	svcErr, ok := domain.AsServiceError(err)
	require.True(t, ok)
	// The last attempt's error wins.
	assert.Equal(t, domain.KindRateLimit, svcErr.Kind)
	assert.Equal(t, "API rate limit exceeded", svcErr.Message)

	sender.AssertNumberOfCalls(t, "Send", 2)
	for _, query := range []string{schema.QueryUserActivity, schema.QueryUserIssue, schema.QueryUserPullRequest} {
		sender.AssertNotCalled(t, "Send", mock.Anything, query, mock.Anything, mock.Anything)
	}
}

func TestAggregator_RequestUserInfo_SecondaryFailure(t *testing.T) {
	testCases := []struct {
		name       string
		failing    string
		failingLog string
	}{
		{name: "activity fails", failing: schema.QueryUserActivity, failingLog: "activity"},
		{name: "issue fails", failing: schema.QueryUserIssue, failingLog: "issue"},
		{name: "pull request fails", failing: schema.QueryUserPullRequest, failingLog: "pull_request"},
	}
	payloads := map[string]string{
		schema.QueryUserActivity:    activityPayload,
		schema.QueryUserIssue:       issuePayload,
		schema.QueryUserPullRequest: pullRequestPayload,
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := new(mockSender)
			sender.On("Send", mock.Anything, schema.QueryUserRepository, vars, "token-a").Return(json.RawMessage(repositoryPayload), nil)
			for query, payload := range payloads {
				if query == tc.failing {
					sender.On("Send", mock.Anything, query, vars, "token-a").Return(nil, rateLimited)
					continue
				}
				sender.On("Send", mock.Anything, query, vars, "token-a").Return(json.RawMessage(payload), nil)
			}
			aggregator, hook := newTestAggregator(sender, "token-a")

			info, err := aggregator.RequestUserInfo(context.Background(), "octocat")

			assert.Nil(t, info)
			svcErr, ok := domain.AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, domain.KindNotFound, svcErr.Kind)
			assert.Equal(t, "user not found", svcErr.Message)

			// Every secondary query still ran to completion.
			sender.AssertNumberOfCalls(t, "Send", 4)

			var logged bool
			for _, entry := range hook.AllEntries() {
				if _, ok := entry.Data[tc.failingLog]; ok && entry.Level == logrus.ErrorLevel {
					logged = true
				}
			}
			assert.True(t, logged, "the failing query should be logged")
		})
	}
}

func TestAggregator_RotatesTokens(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, schema.QueryUserPullRequest, vars, "token-a").Return(nil, rateLimited).Once()
	sender.On("Send", mock.Anything, schema.QueryUserPullRequest, vars, "token-b").Return(json.RawMessage(pullRequestPayload), nil).Once()
	aggregator, _ := newTestAggregator(sender, "token-a", "token-b")

	pr, err := aggregator.RequestUserPullRequest(context.Background(), "octocat")

	require.NoError(t, err)
	assert.Equal(t, 6, pr.PullRequests.TotalCount)
	sender.AssertExpectations(t)
}

func TestAggregator_ExecuteQueryErrors(t *testing.T) {
	testCases := []struct {
		name         string
		tokens       []string
		response     json.RawMessage
		err          error
		expectedKind domain.Kind
		expectedMsg  string
		expectedCall int
	}{
		{
			name:         "empty token pool",
			tokens:       nil,
			expectedKind: domain.KindNotFound,
			expectedMsg:  "not found",
			expectedCall: 0,
		},
		{
			name:         "network error defaults to not found",
			tokens:       []string{"token-a"},
			err:          errors.New("dial tcp: connection refused"),
			expectedKind: domain.KindNotFound,
			expectedMsg:  "not found",
			expectedCall: 1,
		},
		{
			name:         "classified error is kept",
			tokens:       []string{"token-a"},
			err:          rateLimited,
			expectedKind: domain.KindRateLimit,
			expectedMsg:  "API rate limit exceeded",
			expectedCall: 1,
		},
		{
			name:         "malformed payload",
			tokens:       []string{"token-a"},
			response:     json.RawMessage(`{"pullRequests":"many"}`),
			expectedKind: domain.KindNotFound,
			expectedMsg:  "not found",
			expectedCall: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := new(mockSender)
			if tc.response != nil {
				sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tc.response, nil)
			} else {
				sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)
			}
			aggregator, _ := newTestAggregator(sender, tc.tokens...)

			pr, err := aggregator.RequestUserPullRequest(context.Background(), "octocat")

			assert.Nil(t, pr)
			svcErr, ok := domain.AsServiceError(err)
			require.True(t, ok)
			assert.Equal(t, tc.expectedKind, svcErr.Kind)
			assert.Equal(t, tc.expectedMsg, svcErr.Message)
			sender.AssertNumberOfCalls(t, "Send", tc.expectedCall)
		})
	}
}
