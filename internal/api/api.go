// Package api exposes the version-control engine over HTTP with JSON
// bodies. The API is a thin translation layer: request decoding, engine
// call, error-kind to status mapping. All domain rules live in the
// engine.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildforge/buildvc/internal/engine"
)

// actorHeader carries the acting identity for author-restricted
// operations. Identity is opaque to the engine; authenticating the
// header is the deployment's concern.
const actorHeader = "X-Actor-ID"

// Server handles HTTP requests against an Engine.
type Server struct {
	engine *engine.Engine
	log    *slog.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(e *engine.Engine, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{engine: e, log: log}

	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/repositories", s.createRepository)
		v1.GET("/builds/:buildRef/repository", s.getRepository)
		v1.DELETE("/repositories/:repo", s.deleteRepository)

		v1.POST("/repositories/:repo/branches", s.createBranch)
		v1.GET("/repositories/:repo/branches", s.listBranches)
		v1.GET("/repositories/:repo/branches/:name", s.switchBranch)
		v1.GET("/repositories/:repo/branches/:name/history", s.commitHistory)
		v1.DELETE("/branches/:branch", s.deleteBranch)

		v1.POST("/repositories/:repo/commits", s.createCommit)
		v1.GET("/commits/:commit", s.getCommit)
		v1.GET("/commits/:commit/compare/:other", s.compareCommits)

		v1.POST("/repositories/:repo/tags", s.createTag)
		v1.GET("/repositories/:repo/tags", s.listTags)
		v1.DELETE("/tags/:tag", s.deleteTag)

		v1.POST("/repositories/:repo/merge-requests", s.createMergeRequest)
		v1.GET("/repositories/:repo/merge-requests", s.listMergeRequests)
		v1.GET("/merge-requests/:mr", s.getMergeRequest)
		v1.PATCH("/merge-requests/:mr", s.updateMergeRequest)
		v1.POST("/merge-requests/:mr/merge", s.mergeMergeRequest)
		v1.POST("/merge-requests/:mr/close", s.closeMergeRequest)

		v1.POST("/repositories/:repo/comments", s.addComment)
		v1.GET("/repositories/:repo/comments", s.listComments)
		v1.PATCH("/comments/:comment", s.updateComment)
		v1.DELETE("/comments/:comment", s.deleteComment)
	}
	return r
}

// writeError translates engine error kinds to HTTP statuses. The kind
// travels in the body so clients can branch without parsing messages.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := engine.KindOf(err)
	switch kind {
	case engine.KindNotFound:
		status = http.StatusNotFound
	case engine.KindValidation:
		status = http.StatusBadRequest
	case engine.KindConflict:
		status = http.StatusConflict
	case engine.KindRetryable:
		status = http.StatusServiceUnavailable
	}

	var ee *engine.Error
	message := "internal error"
	if errors.As(err, &ee) {
		message = ee.Message
	} else {
		s.log.Error("unhandled error", "error", err, "path", c.FullPath())
	}

	c.JSON(status, gin.H{"kind": string(kind), "error": message})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"kind":  string(engine.KindValidation),
			"error": "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}
