package domain

import (
	"time"

	"github.com/montanaflynn/stats"
)

// Summary holds the totals derived from a UserInfo.
// It is what the rendering layer consumes.
type Summary struct {
	TotalCommits       int     `json:"total_commits"`
	TotalReviews       int     `json:"total_reviews"`
	TotalFollowers     int     `json:"total_followers"`
	TotalOrganizations int     `json:"total_organizations"`
	TotalIssues        int     `json:"total_issues"`
	TotalPullRequests  int     `json:"total_pull_requests"`
	TotalRepositories  int     `json:"total_repositories"`
	TotalStargazers    int     `json:"total_stargazers"`
	MedianStargazers   float64 `json:"median_stargazers"`
	LanguageCount      int     `json:"language_count"`
	AccountYears       int     `json:"account_years"`
}

// Summarize computes the totals of info as of now.
func Summarize(info *UserInfo, now time.Time) *Summary {
	activity := info.Activity
	repos := info.Repository.Repositories

	stars := make(stats.Float64Data, 0, len(repos.Nodes))
	languages := make(map[string]struct{})
	for _, node := range repos.Nodes {
		stars = append(stars, float64(node.Stargazers.TotalCount))
		for _, lang := range node.Languages.Nodes {
			languages[lang.Name] = struct{}{}
		}
	}

	var total, median float64
	if len(stars) > 0 {
		// Both only fail on empty input.
		total, _ = stats.Sum(stars)
		median, _ = stats.Median(stars)
	}

	return &Summary{
		TotalCommits:       activity.ContributionsCollection.TotalCommitContributions + activity.ContributionsCollection.RestrictedContributionsCount,
		TotalReviews:       activity.ContributionsCollection.TotalPullRequestReviewContributions,
		TotalFollowers:     activity.Followers.TotalCount,
		TotalOrganizations: activity.Organizations.TotalCount,
		TotalIssues:        info.Issue.OpenIssues.TotalCount + info.Issue.ClosedIssues.TotalCount,
		TotalPullRequests:  info.PullRequest.PullRequests.TotalCount,
		TotalRepositories:  repos.TotalCount,
		TotalStargazers:    int(total),
		MedianStargazers:   median,
		LanguageCount:      len(languages),
		AccountYears:       accountYears(activity.CreatedAt.Time, now),
	}
}

func accountYears(createdAt, now time.Time) int {
	if createdAt.IsZero() || now.Before(createdAt) {
		return 0
	}
	years := now.Year() - createdAt.Year()
	if now.Month() < createdAt.Month() || (now.Month() == createdAt.Month() && now.Day() < createdAt.Day()) {
		years--
	}
	return years
}
