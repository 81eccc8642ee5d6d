// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/naka-gawa/github-trophy/internal/config"
	"github.com/naka-gawa/github-trophy/internal/domain"
	"github.com/naka-gawa/github-trophy/internal/gateway"
	"github.com/naka-gawa/github-trophy/internal/retry"
	"github.com/naka-gawa/github-trophy/internal/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	userNotFoundMessage = "user not found"
	notFoundMessage     = "not found"
)

// Aggregator is the use case for fetching a user's GitHub data.
// It runs every query through a retry coordinator that rotates the token pool.
type Aggregator struct {
	sender gateway.Sender
	tokens config.TokenPool
	delay  time.Duration
	logger logrus.FieldLogger
	opts   []retry.Option
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(sender gateway.Sender, tokens config.TokenPool, delay time.Duration, logger logrus.FieldLogger, opts ...retry.Option) *Aggregator {
	return &Aggregator{
		sender: sender,
		tokens: tokens,
		delay:  delay,
		logger: logger.WithField("component", "aggregator"),
		opts:   opts,
	}
}

// RequestUserRepository fetches the repository statistics of username.
// A non-nil error is always a *domain.ServiceError.
func (a *Aggregator) RequestUserRepository(ctx context.Context, username string) (*domain.GitHubUserRepository, error) {
	return executeQuery[domain.GitHubUserRepository](ctx, a, schema.QueryUserRepository, username)
}

// RequestUserActivity fetches the contribution counters of username.
// A non-nil error is always a *domain.ServiceError.
func (a *Aggregator) RequestUserActivity(ctx context.Context, username string) (*domain.GitHubUserActivity, error) {
	return executeQuery[domain.GitHubUserActivity](ctx, a, schema.QueryUserActivity, username)
}

// RequestUserIssue fetches the issue counts of username.
// A non-nil error is always a *domain.ServiceError.
func (a *Aggregator) RequestUserIssue(ctx context.Context, username string) (*domain.GitHubUserIssue, error) {
	return executeQuery[domain.GitHubUserIssue](ctx, a, schema.QueryUserIssue, username)
}

// RequestUserPullRequest fetches the pull request count of username.
// A non-nil error is always a *domain.ServiceError.
func (a *Aggregator) RequestUserPullRequest(ctx context.Context, username string) (*domain.GitHubUserPullRequest, error) {
	return executeQuery[domain.GitHubUserPullRequest](ctx, a, schema.QueryUserPullRequest, username)
}

// RequestUserInfo fetches all four payloads of username.
//
// The repository query runs first and its error is returned as is. The other
// three queries then run concurrently and are all awaited; if any of them
// fails a generic not found error is returned and no partial result is kept.
// A non-nil error is always a *domain.ServiceError.
func (a *Aggregator) RequestUserInfo(ctx context.Context, username string) (*domain.UserInfo, error) {
	log := a.logger.WithField("username", username)

	repository, err := a.RequestUserRepository(ctx, username)
	if err != nil {
		log.WithError(err).Error("Failed to fetch repositories")
		return nil, err
	}

	var (
		activity    *domain.GitHubUserActivity
		issue       *domain.GitHubUserIssue
		pullRequest *domain.GitHubUserPullRequest
	)
	// Each slot keeps its own error; the goroutines never fail the group so
	// that Wait returns only after all three settled.
	errs := make([]error, 3)
	var eg errgroup.Group

	eg.Go(func() error {
		activity, errs[0] = a.RequestUserActivity(ctx, username)
		return nil
	})
	eg.Go(func() error {
		issue, errs[1] = a.RequestUserIssue(ctx, username)
		return nil
	})
	eg.Go(func() error {
		pullRequest, errs[2] = a.RequestUserPullRequest(ctx, username)
		return nil
	})
	_ = eg.Wait()

	failed := make(logrus.Fields)
	for i, name := range []string{"activity", "issue", "pull_request"} {
		if errs[i] != nil {
			failed[name] = errs[i].Error()
		}
	}
	if len(failed) > 0 {
		log.WithFields(failed).Error("Could not find a user with this name")
		return nil, domain.NewServiceError(userNotFoundMessage, domain.KindNotFound)
	}

	log.Debug("All queries fetched successfully")
	return domain.NewUserInfo(*activity, *issue, *pullRequest, *repository), nil
}

// executeQuery runs query for username with a fresh retry coordinator, one
// attempt per token, and decodes the user payload into T.
func executeQuery[T any](ctx context.Context, a *Aggregator, query, username string) (*T, error) {
	variables := map[string]string{"username": username}
	coordinator := retry.New(a.tokens.Len(), a.delay, a.logger, a.opts...)

	raw, err := retry.Fetch(ctx, coordinator, func(ctx context.Context, attempt retry.Attempt) (json.RawMessage, error) {
		token, err := a.tokens.At(attempt.Index)
		if err != nil {
			return nil, err
		}
		return a.sender.Send(ctx, query, variables, token)
	})
	if err != nil {
		return nil, toServiceError(a.logger, err)
	}

	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		a.logger.WithError(err).Error("Failed to decode user payload")
		return nil, domain.NewServiceError(notFoundMessage, domain.KindNotFound)
	}
	return &payload, nil
}

// toServiceError extracts the ServiceError carried by err, defaulting to not found.
func toServiceError(logger logrus.FieldLogger, err error) *domain.ServiceError {
	if svcErr, ok := domain.AsServiceError(err); ok {
		logger.Error(svcErr.Message)
		return svcErr
	}
	logger.WithError(err).Error("Query failed")
	return domain.NewServiceError(notFoundMessage, domain.KindNotFound)
}
