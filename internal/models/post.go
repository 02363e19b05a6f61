package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a feed post document. Likes and dislikes are user-id sets; the
// realtime like/dislike event replaces both wholesale.
type Post struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Author        primitive.ObjectID   `bson:"author" json:"author"`
	Content       string               `bson:"content" json:"content"`
	Images        []string             `bson:"images,omitempty" json:"images,omitempty"`
	IsPremium     bool                 `bson:"is_premium" json:"isPremium"`
	Likes         []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes      []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	CommentsCount int64                `bson:"comments_count" json:"commentsCount"`
	CreatedAt     time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updatedAt"`
}

// CreatePostRequest defines the request body for creating a new post.
type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,min=1,max=5000"`
	Images    []string `json:"images,omitempty"`
	IsPremium bool     `json:"isPremium,omitempty"`
}

// UpdatePostRequest defines the request body for updating an existing post.
type UpdatePostRequest struct {
	Content string   `json:"content,omitempty" validate:"omitempty,min=1,max=5000"`
	Images  []string `json:"images,omitempty"`
}

// LikeDislikePayload carries the full like/dislike sets for a post, as sent
// over the realtime channel.
type LikeDislikePayload struct {
	PostID   string   `json:"postId" validate:"required"`
	Likes    []string `json:"likes"`
	Dislikes []string `json:"dislikes"`
}
