package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyComment    = errors.New("comment content cannot be empty")
	ErrInvalidSort     = errors.New("sort must be one of: newest, upvotes")
	ErrInvalidPost     = errors.New("invalid post")
)

// SortOrder selects the single column a post listing is ordered by.
type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortUpvotes SortOrder = "upvotes"
)

// ParseSort maps a query value to a SortOrder; empty means newest.
func ParseSort(raw string) (SortOrder, error) {
	switch SortOrder(raw) {
	case "", SortNewest:
		return SortNewest, nil
	case SortUpvotes:
		return SortUpvotes, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidSort, raw)
	}
}

func (s SortOrder) column() string {
	if s == SortUpvotes {
		return "upvotes"
	}
	return "created_at"
}

type ListOptions struct {
	Sort   SortOrder
	Search string
}

// PostStore is the post registry.
type PostStore interface {
	List(ctx context.Context, opts ListOptions) ([]models.Post, error)
	Featured(ctx context.Context, limit int) ([]models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, id int64, req models.UpdatePostRequest) (*models.Post, error)
	Delete(ctx context.Context, id int64) error
	Upvote(ctx context.Context, id int64) (int, error)
}

// CommentStore is the comment ledger kept on each post.
type CommentStore interface {
	List(ctx context.Context, postID int64) ([]models.Comment, error)
	Add(ctx context.Context, postID int64, content string) (*models.Comment, error)
	Edit(ctx context.Context, postID, commentID int64, content string) (*models.Comment, error)
	Delete(ctx context.Context, postID, commentID int64) error
}
