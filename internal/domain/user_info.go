// Package domain contains the core data structures and domain logic for the application.
package domain

import "github.com/shurcooL/githubv4"

// GitHubUserRepository is the payload of the repository query.
// Repositories are ordered by stargazer count, most starred first.
type GitHubUserRepository struct {
	Repositories struct {
		TotalCount int `json:"totalCount"`
		Nodes      []struct {
			Languages struct {
				Nodes []struct {
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"languages"`
			Stargazers struct {
				TotalCount int `json:"totalCount"`
			} `json:"stargazers"`
		} `json:"nodes"`
	} `json:"repositories"`
}

// GitHubUserActivity is the payload of the activity query.
type GitHubUserActivity struct {
	CreatedAt               githubv4.DateTime `json:"createdAt"`
	ContributionsCollection struct {
		TotalCommitContributions            int `json:"totalCommitContributions"`
		RestrictedContributionsCount        int `json:"restrictedContributionsCount"`
		TotalPullRequestReviewContributions int `json:"totalPullRequestReviewContributions"`
	} `json:"contributionsCollection"`
	Organizations struct {
		TotalCount int `json:"totalCount"`
	} `json:"organizations"`
	Followers struct {
		TotalCount int `json:"totalCount"`
	} `json:"followers"`
}

// GitHubUserIssue is the payload of the issue query.
type GitHubUserIssue struct {
	OpenIssues struct {
		TotalCount int `json:"totalCount"`
	} `json:"openIssues"`
	ClosedIssues struct {
		TotalCount int `json:"totalCount"`
	} `json:"closedIssues"`
}

// GitHubUserPullRequest is the payload of the pull request query.
type GitHubUserPullRequest struct {
	PullRequests struct {
		TotalCount int `json:"totalCount"`
	} `json:"pullRequests"`
}

// UserInfo aggregates the four query payloads for a single user.
// It is only built once every one of them was fetched successfully.
type UserInfo struct {
	Activity    GitHubUserActivity    `json:"activity"`
	Issue       GitHubUserIssue       `json:"issue"`
	PullRequest GitHubUserPullRequest `json:"pullRequest"`
	Repository  GitHubUserRepository  `json:"repository"`
}

// NewUserInfo builds a UserInfo from the four payloads without transforming them.
func NewUserInfo(activity GitHubUserActivity, issue GitHubUserIssue, pullRequest GitHubUserPullRequest, repository GitHubUserRepository) *UserInfo {
	return &UserInfo{
		Activity:    activity,
		Issue:       issue,
		PullRequest: pullRequest,
		Repository:  repository,
	}
}
