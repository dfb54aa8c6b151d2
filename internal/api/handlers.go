package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buildforge/buildvc/internal/engine"
	"github.com/buildforge/buildvc/internal/model"
)

type createRepositoryRequest struct {
	BuildRef    string          `json:"build_ref"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"created_by"`
	Snapshot    *model.Snapshot `json:"snapshot"`
}

func (s *Server) createRepository(c *gin.Context) {
	var req createRepositoryRequest
	if !bindJSON(c, &req) {
		return
	}
	repo, err := s.engine.CreateRepository(c.Request.Context(), engine.CreateRepositoryParams{
		BuildRef:    req.BuildRef,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Snapshot:    req.Snapshot,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, repo)
}

func (s *Server) getRepository(c *gin.Context) {
	repo, err := s.engine.GetRepository(c.Request.Context(), c.Param("buildRef"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, repo)
}

func (s *Server) deleteRepository(c *gin.Context) {
	if err := s.engine.DeleteRepository(c.Request.Context(), c.Param("repo")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createBranchRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	FromCommitID string `json:"from_commit_id"`
	CreatedBy    string `json:"created_by"`
}

func (s *Server) createBranch(c *gin.Context) {
	var req createBranchRequest
	if !bindJSON(c, &req) {
		return
	}
	branch, err := s.engine.CreateBranch(c.Request.Context(), engine.CreateBranchParams{
		RepositoryID: c.Param("repo"),
		Name:         req.Name,
		Description:  req.Description,
		FromCommitID: req.FromCommitID,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func (s *Server) listBranches(c *gin.Context) {
	branches, err := s.engine.GetBranches(c.Request.Context(), c.Param("repo"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

func (s *Server) switchBranch(c *gin.Context) {
	summary, snap, err := s.engine.SwitchBranch(c.Request.Context(), c.Param("repo"), c.Param("name"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branch": summary, "snapshot": snap})
}

func (s *Server) deleteBranch(c *gin.Context) {
	if err := s.engine.DeleteBranch(c.Request.Context(), c.Param("branch")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createCommitRequest struct {
	BranchID               string          `json:"branch_id"`
	ExpectedParentCommitID string          `json:"expected_parent_commit_id"`
	AuthorID               string          `json:"author_id"`
	CommitterID            string          `json:"committer_id"`
	Message                string          `json:"message"`
	Snapshot               *model.Snapshot `json:"snapshot"`
}

func (s *Server) createCommit(c *gin.Context) {
	var req createCommitRequest
	if !bindJSON(c, &req) {
		return
	}
	commit, err := s.engine.CreateCommit(c.Request.Context(), engine.CreateCommitParams{
		RepositoryID:           c.Param("repo"),
		BranchID:               req.BranchID,
		ExpectedParentCommitID: req.ExpectedParentCommitID,
		AuthorID:               req.AuthorID,
		CommitterID:            req.CommitterID,
		Message:                req.Message,
		Snapshot:               req.Snapshot,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commit)
}

func (s *Server) commitHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	commits, err := s.engine.GetCommitHistory(c.Request.Context(), c.Param("repo"), c.Param("name"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commits": commits})
}

func (s *Server) getCommit(c *gin.Context) {
	detail, err := s.engine.GetCommit(c.Request.Context(), c.Param("commit"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) compareCommits(c *gin.Context) {
	cs, err := s.engine.CompareCommits(c.Request.Context(), c.Param("commit"), c.Param("other"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"change_set": cs,
		"summary":    engine.GenerateCommitMessage(cs),
	})
}

type createTagRequest struct {
	CommitID    string `json:"commit_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

func (s *Server) createTag(c *gin.Context) {
	var req createTagRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := s.engine.CreateTag(c.Request.Context(), engine.CreateTagParams{
		RepositoryID: c.Param("repo"),
		CommitID:     req.CommitID,
		Name:         req.Name,
		Description:  req.Description,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.engine.GetTags(c.Request.Context(), c.Param("repo"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (s *Server) deleteTag(c *gin.Context) {
	if err := s.engine.DeleteTag(c.Request.Context(), c.Param("tag")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createMergeRequestRequest struct {
	SourceBranchID string `json:"source_branch_id"`
	TargetBranchID string `json:"target_branch_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	CreatedBy      string `json:"created_by"`
	AssignedTo     string `json:"assigned_to"`
}

func (s *Server) createMergeRequest(c *gin.Context) {
	var req createMergeRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	mr, err := s.engine.CreateMergeRequest(c.Request.Context(), engine.CreateMergeRequestParams{
		RepositoryID:   c.Param("repo"),
		SourceBranchID: req.SourceBranchID,
		TargetBranchID: req.TargetBranchID,
		Title:          req.Title,
		Description:    req.Description,
		CreatedBy:      req.CreatedBy,
		AssignedTo:     req.AssignedTo,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mr)
}

func (s *Server) listMergeRequests(c *gin.Context) {
	mrs, err := s.engine.GetMergeRequests(c.Request.Context(), c.Param("repo"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merge_requests": mrs})
}

func (s *Server) getMergeRequest(c *gin.Context) {
	mr, err := s.engine.GetMergeRequest(c.Request.Context(), c.Param("mr"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mr)
}

type updateMergeRequestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
}

func (s *Server) updateMergeRequest(c *gin.Context) {
	var req updateMergeRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	mr, err := s.engine.UpdateMergeRequest(c.Request.Context(), c.Param("mr"), engine.UpdateMergeRequestParams{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mr)
}

type mergeMergeRequestRequest struct {
	MergeCommitID string `json:"merge_commit_id"`
}

func (s *Server) mergeMergeRequest(c *gin.Context) {
	var req mergeMergeRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	mr, err := s.engine.MergeMergeRequest(c.Request.Context(), c.Param("mr"), req.MergeCommitID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mr)
}

func (s *Server) closeMergeRequest(c *gin.Context) {
	mr, err := s.engine.CloseMergeRequest(c.Request.Context(), c.Param("mr"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mr)
}

type addCommentRequest struct {
	CommitID        string `json:"commit_id"`
	MergeRequestID  string `json:"merge_request_id"`
	ParentCommentID string `json:"parent_comment_id"`
	AuthorID        string `json:"author_id"`
	Content         string `json:"content"`
}

func (s *Server) addComment(c *gin.Context) {
	var req addCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := s.engine.AddComment(c.Request.Context(), engine.AddCommentParams{
		RepositoryID:    c.Param("repo"),
		CommitID:        req.CommitID,
		MergeRequestID:  req.MergeRequestID,
		ParentCommentID: req.ParentCommentID,
		AuthorID:        req.AuthorID,
		Content:         req.Content,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) listComments(c *gin.Context) {
	comments, err := s.engine.GetComments(c.Request.Context(),
		c.Param("repo"), c.Query("commit_id"), c.Query("merge_request_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) updateComment(c *gin.Context) {
	var req updateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := s.engine.UpdateComment(c.Request.Context(),
		c.Param("comment"), c.GetHeader(actorHeader), req.Content)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	err := s.engine.DeleteComment(c.Request.Context(), c.Param("comment"), c.GetHeader(actorHeader))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
