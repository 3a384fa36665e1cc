package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

// Comments keeps each post's comments as a JSON array in posts.comments.
// Every mutation rewrites the whole array while holding the post row lock.
type Comments struct {
	db  *gorm.DB
	now func() time.Time
}

func NewComments(db *gorm.DB) *Comments {
	return &Comments{db: db, now: time.Now}
}

func (r *Comments) List(ctx context.Context, postID int64) ([]models.Comment, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Select("id", "comments").First(&post, postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch comments for post %d: %w", postID, err)
	}
	return DecodeComments(post.Comments), nil
}

// Add puts a new comment at the head of the list.
func (r *Comments) Add(ctx context.Context, postID int64, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyComment
	}

	var added models.Comment
	err := r.mutate(ctx, postID, func(list []models.Comment) ([]models.Comment, error) {
		var next []models.Comment
		next, added = prependComment(list, content, r.now().UTC())
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (r *Comments) Edit(ctx context.Context, postID, commentID int64, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyComment
	}

	var edited models.Comment
	err := r.mutate(ctx, postID, func(list []models.Comment) ([]models.Comment, error) {
		var err error
		list, edited, err = editComment(list, commentID, content, r.now().UTC())
		return list, err
	})
	if err != nil {
		return nil, err
	}
	return &edited, nil
}

func (r *Comments) Delete(ctx context.Context, postID, commentID int64) error {
	return r.mutate(ctx, postID, func(list []models.Comment) ([]models.Comment, error) {
		return deleteComment(list, commentID)
	})
}

// mutate is the read-modify-write cycle shared by every ledger change.
func (r *Comments) mutate(ctx context.Context, postID int64, fn func([]models.Comment) ([]models.Comment, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "comments").
			First(&post, postID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("failed to fetch comments for post %d: %w", postID, err)
		}

		next, err := fn(DecodeComments(post.Comments))
		if err != nil {
			return err
		}

		encoded, err := EncodeComments(next)
		if err != nil {
			return err
		}

		err = tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("comments", encoded).Error
		if err != nil {
			return fmt.Errorf("failed to write comments for post %d: %w", postID, err)
		}
		return nil
	})
}

// DecodeComments parses a stored ledger. Anything unparsable is an empty list.
func DecodeComments(raw string) []models.Comment {
	comments := []models.Comment{}
	if strings.TrimSpace(raw) == "" {
		return comments
	}
	if err := json.Unmarshal([]byte(raw), &comments); err != nil {
		logs.WithFields(logrus.Fields{"error": err.Error()}).Warn("Malformed comments column, treating as empty")
		return []models.Comment{}
	}
	if comments == nil {
		return []models.Comment{}
	}
	return comments
}

func EncodeComments(comments []models.Comment) (string, error) {
	if comments == nil {
		comments = []models.Comment{}
	}
	b, err := json.Marshal(comments)
	if err != nil {
		return "", fmt.Errorf("failed to encode comments: %w", err)
	}
	return string(b), nil
}

// nextCommentID derives an id from the creation time, stepping past any
// id already in the list.
func nextCommentID(list []models.Comment, now time.Time) int64 {
	id := now.UnixMilli()
	for _, c := range list {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	return id
}

func prependComment(list []models.Comment, content string, now time.Time) ([]models.Comment, models.Comment) {
	c := models.Comment{
		ID:        nextCommentID(list, now),
		Content:   content,
		CreatedAt: now,
	}
	next := make([]models.Comment, 0, len(list)+1)
	next = append(next, c)
	next = append(next, list...)
	return next, c
}

func editComment(list []models.Comment, id int64, content string, now time.Time) ([]models.Comment, models.Comment, error) {
	for i := range list {
		if list[i].ID == id {
			edited := now
			list[i].Content = content
			list[i].EditedAt = &edited
			return list, list[i], nil
		}
	}
	return nil, models.Comment{}, ErrCommentNotFound
}

func deleteComment(list []models.Comment, id int64) ([]models.Comment, error) {
	next := make([]models.Comment, 0, len(list))
	found := false
	for _, c := range list {
		if c.ID == id {
			found = true
			continue
		}
		next = append(next, c)
	}
	if !found {
		return nil, ErrCommentNotFound
	}
	return next, nil
}
