package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

type Posts struct {
	db *gorm.DB
}

func NewPosts(db *gorm.DB) *Posts {
	return &Posts{db: db}
}

// List returns every post matching the title search, ordered by one column descending.
func (r *Posts) List(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})

	if search := strings.TrimSpace(opts.Search); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+escapeLike(strings.ToLower(search))+"%")
	}

	posts := []models.Post{}
	err := q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: opts.Sort.column()}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Featured returns the newest posts that carry an image.
func (r *Posts) Featured(ctx context.Context, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.WithContext(ctx).
		Where("image_url <> ''").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list featured posts: %w", err)
	}
	return posts, nil
}

func (r *Posts) Get(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post %d: %w", id, err)
	}
	return &post, nil
}

func (r *Posts) Create(ctx context.Context, post *models.Post) error {
	if post.Comments == "" {
		post.Comments = "[]"
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if invalid := asInvalid(err); invalid != nil {
			return invalid
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a post.
func (r *Posts) Update(ctx context.Context, id int64, req models.UpdatePostRequest) (*models.Post, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":     req.Title,
			"content":   req.Content,
			"image_url": req.ImageURL,
		})
	if res.Error != nil {
		if invalid := asInvalid(res.Error); invalid != nil {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to update post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrPostNotFound
	}
	return r.Get(ctx, id)
}

func (r *Posts) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Upvote increments the counter in a single statement and returns the new value.
func (r *Posts) Upvote(ctx context.Context, id int64) (int, error) {
	var post models.Post
	res := r.db.WithContext(ctx).
		Model(&post).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "upvotes"}}}).
		Where("id = ?", id).
		UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to upvote post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrPostNotFound
	}
	return post.Upvotes, nil
}

// asInvalid turns constraint and value-length failures into ErrInvalidPost.
func asInvalid(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case "23514", "22001", "23502": // check_violation, string_data_right_truncation, not_null_violation
		return fmt.Errorf("%w: %s", ErrInvalidPost, pgErr.Message)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
