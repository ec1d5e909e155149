package entities

// Pull request states as reported by Bitbucket Cloud.
const (
	PullRequestOpen       = "OPEN"
	PullRequestMerged     = "MERGED"
	PullRequestSuperseded = "SUPERSEDED"
	PullRequestDeclined   = "DECLINED"
)

// Merge strategies accepted by the merge endpoint.
const (
	MergeCommit      = "merge_commit"
	MergeSquash      = "squash"
	MergeFastForward = "fast_forward"
)

// PullRequest represents a pull request between two branches.
type PullRequest struct {
	Number            int
	Title             string
	Description       string
	State             string
	URL               string
	Source            Branch
	Destination       Branch
	CloseSourceBranch bool
	TaskCount         int
}

// PullRequestFilter narrows a pull request listing. Empty fields match everything.
type PullRequestFilter struct {
	Source      *Branch
	Destination *Branch
	States      []string
}

// Matches reports whether the pull request passes the branch filters.
// States are applied server side and therefore not checked here.
func (f PullRequestFilter) Matches(pr PullRequest) bool {
	if f.Source != nil && !f.Source.Equals(pr.Source) {
		return false
	}
	if f.Destination != nil && !f.Destination.Equals(pr.Destination) {
		return false
	}
	return true
}

// PullRequestInput contains the data needed to open a pull request.
type PullRequestInput struct {
	Title             string
	Description       string
	CloseSourceBranch bool
}

// IsValidPullRequestState reports whether the state is known to Bitbucket.
func IsValidPullRequestState(state string) bool {
	switch state {
	case PullRequestOpen, PullRequestMerged, PullRequestSuperseded, PullRequestDeclined:
		return true
	default:
		return false
	}
}

// IsValidMergeStrategy reports whether the strategy is accepted by Bitbucket.
func IsValidMergeStrategy(strategy string) bool {
	switch strategy {
	case MergeCommit, MergeSquash, MergeFastForward:
		return true
	default:
		return false
	}
}
