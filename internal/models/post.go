package models

import "time"

type Post struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	Upvotes   int       `gorm:"not null;default:0;check:chk_posts_upvotes,upvotes >= 0" json:"upvotes"`
	Comments  string    `gorm:"type:text;not null;default:'[]'" json:"-"` // serialized []Comment
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,max=300"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url" binding:"omitempty,url"`
	Upvotes  int    `json:"upvotes" binding:"min=0"`
}

type UpdatePostRequest struct {
	Title    string `json:"title" binding:"required,max=300"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url" binding:"omitempty,url"`
}
