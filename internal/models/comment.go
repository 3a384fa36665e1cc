package models

import "time"

// Comment lives inside its post's comments column, never in a table of its own.
type Comment struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}
