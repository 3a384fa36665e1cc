package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
	"github.com/emilythestrangee/dcplaces/backend/internal/repository"
)

const featuredLimit = 3

type PostHandler struct {
	posts repository.PostStore
}

func NewPostHandler(posts repository.PostStore) *PostHandler {
	return &PostHandler{posts: posts}
}

// GetPosts lists posts, ?sort=newest|upvotes&search=title
func (h *PostHandler) GetPosts(c *gin.Context) {
	sort, err := repository.ParseSort(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	posts, err := h.posts.List(c.Request.Context(), repository.ListOptions{
		Sort:   sort,
		Search: strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, err, "Failed to fetch posts")
		return
	}

	// If no posts, return empty array not null
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// GetFeatured returns the newest posts that have an image.
func (h *PostHandler) GetFeatured(c *gin.Context) {
	posts, err := h.posts.Featured(c.Request.Context(), featuredLimit)
	if err != nil {
		respondError(c, err, "Failed to fetch featured posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required, image_url must be a URL and upvotes cannot be negative"})
		return
	}
	if strings.TrimSpace(input.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	post := models.Post{
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		ImageURL: input.ImageURL,
		Upvotes:  input.Upvotes,
	}
	if err := h.posts.Create(c.Request.Context(), &post); err != nil {
		respondError(c, err, "Failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost replaces title, content and image (PROTECTED)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required and image_url must be a URL"})
		return
	}
	input.Title = strings.TrimSpace(input.Title)

	post, err := h.posts.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "Failed to update post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post along with its comments (PROTECTED)
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// UpvotePost adds one upvote and returns the new count (PROTECTED)
func (h *PostHandler) UpvotePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	upvotes, err := h.posts.Upvote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to upvote post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "upvotes": upvotes})
}
