package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/repository"
	"github.com/emilythestrangee/dcplaces/backend/internal/storage"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	Upload  *UploadHandler
}

// NewHandler creates a unified handler with all sub-handlers. uploader may be
// nil when image uploads are not configured.
func NewHandler(auth Authenticator, posts repository.PostStore, comments repository.CommentStore, uploader storage.Uploader) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(auth),
		Post:    NewPostHandler(posts),
		Comment: NewCommentHandler(comments),
		Upload:  NewUploadHandler(uploader),
	}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps store errors to a status; anything unknown is a 500 with
// the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, repository.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
	case errors.Is(err, repository.ErrEmptyComment),
		errors.Is(err, repository.ErrInvalidSort),
		errors.Is(err, repository.ErrInvalidPost):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		logs.LogJSON("ERROR", fallback, map[string]interface{}{
			"error": err.Error(),
			"route": c.FullPath(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
