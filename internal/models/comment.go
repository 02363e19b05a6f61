package models

import "gorm.io/gorm"

// Comment represents a comment on a post. Comments live in PostgreSQL while
// posts live in MongoDB; PostID stores the post's ObjectID as a string.
type Comment struct {
	gorm.Model
	PostID  string `json:"postId" gorm:"index"`
	UserID  string `json:"userId" gorm:"index"`
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// CreateCommentRequest defines the request body for creating a new comment.
type CreateCommentRequest struct {
	PostID  string `json:"postId" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// UpdateCommentRequest defines the request body for updating a comment.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// SocketCommentPayload is the addComment/updateComment event body.
type SocketCommentPayload struct {
	ID      uint   `json:"id,omitempty"`
	PostID  string `json:"postId"`
	UserID  string `json:"userId"`
	Content string `json:"content"`
}
