package model

import "time"

// DefaultBranchName is the branch created alongside every new repository.
const DefaultBranchName = "main"

// Repository is the top-level container binding a build to its version
// history. Exactly one branch per repository has IsDefault = true.
type Repository struct {
	ID          string    `json:"id"`
	BuildRef    string    `json:"build_ref"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// RepositoryDetail is a repository with its branches and recent commits,
// as returned by lookup operations for display purposes.
type RepositoryDetail struct {
	Repository
	Branches      []Branch `json:"branches"`
	RecentCommits []Commit `json:"recent_commits"`
}

// Branch is a named, mutable pointer into the commit graph.
// HeadCommitID advances only through the compare-and-swap in the store.
type Branch struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repository_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsDefault    bool      `json:"is_default"`
	HeadCommitID string    `json:"head_commit_id"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// BranchSummary pairs a branch with its resolved head commit.
type BranchSummary struct {
	Branch
	Head *Commit `json:"head,omitempty"`
}

// Commit is an immutable node in a repository's singly-linked ancestry
// chain. ParentCommitID is empty for the initial commit of a repository
// and never references a commit in another repository.
type Commit struct {
	ID             string    `json:"id"`
	RepositoryID   string    `json:"repository_id"`
	BranchID       string    `json:"branch_id"`
	ParentCommitID string    `json:"parent_commit_id,omitempty"`
	CommitHash     string    `json:"commit_hash"`
	AuthorID       string    `json:"author_id"`
	AuthorName     string    `json:"author_name,omitempty"`
	CommitterID    string    `json:"committer_id"`
	CommitterName  string    `json:"committer_name,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// CommitDetail is a commit with its resolved snapshot.
type CommitDetail struct {
	Commit
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Tag is an immutable named pointer to a commit. Names are unique within
// a repository. Deleting a tag never affects the commit it pointed to.
type Tag struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repository_id"`
	CommitID     string    `json:"commit_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// MergeRequestStatus is the state of a merge request.
// Open is initial; Merged and Closed are terminal.
type MergeRequestStatus string

const (
	MergeRequestOpen   MergeRequestStatus = "open"
	MergeRequestMerged MergeRequestStatus = "merged"
	MergeRequestClosed MergeRequestStatus = "closed"
)

// Terminal reports whether no further transitions are permitted.
func (s MergeRequestStatus) Terminal() bool {
	return s == MergeRequestMerged || s == MergeRequestClosed
}

// MergeRequest proposes integrating one branch into another. The engine
// records merge metadata only; it never fabricates multi-parent commits.
type MergeRequest struct {
	ID             string             `json:"id"`
	RepositoryID   string             `json:"repository_id"`
	SourceBranchID string             `json:"source_branch_id"`
	TargetBranchID string             `json:"target_branch_id"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Status         MergeRequestStatus `json:"status"`
	MergeCommitID  string             `json:"merge_commit_id,omitempty"`
	CreatedBy      string             `json:"created_by"`
	AssignedTo     string             `json:"assigned_to,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	MergedAt       *time.Time         `json:"merged_at,omitempty"`
}

// Comment is attached to exactly one of a commit or a merge request.
// ParentCommentID, when set, references a comment on the same target,
// forming a thread.
type Comment struct {
	ID              string    `json:"id"`
	RepositoryID    string    `json:"repository_id"`
	CommitID        string    `json:"commit_id,omitempty"`
	MergeRequestID  string    `json:"merge_request_id,omitempty"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	AuthorID        string    `json:"author_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}
