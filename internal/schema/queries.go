// Package schema holds the GraphQL documents sent to the GitHub API.
// Every document takes a single $username variable and selects the user node.
package schema

// QueryUserRepository fetches the owned repositories ordered by stars.
const QueryUserRepository = `
query userInfo($username: String!) {
  user(login: $username) {
    repositories(first: 100, ownerAffiliations: OWNER, orderBy: {direction: DESC, field: STARGAZERS}) {
      totalCount
      nodes {
        languages(first: 3, orderBy: {direction: DESC, field: SIZE}) {
          nodes {
            name
          }
        }
        stargazers {
          totalCount
        }
      }
    }
  }
}`

// QueryUserActivity fetches contribution and social counters.
const QueryUserActivity = `
query userInfo($username: String!) {
  user(login: $username) {
    createdAt
    contributionsCollection {
      totalCommitContributions
      restrictedContributionsCount
      totalPullRequestReviewContributions
    }
    organizations(first: 1) {
      totalCount
    }
    followers(first: 1) {
      totalCount
    }
  }
}`

// QueryUserIssue fetches open and closed issue counts.
const QueryUserIssue = `
query userInfo($username: String!) {
  user(login: $username) {
    openIssues: issues(states: OPEN) {
      totalCount
    }
    closedIssues: issues(states: CLOSED) {
      totalCount
    }
  }
}`

// QueryUserPullRequest fetches the pull request count.
const QueryUserPullRequest = `
query userInfo($username: String!) {
  user(login: $username) {
    pullRequests(first: 1) {
      totalCount
    }
  }
}`
