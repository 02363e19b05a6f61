package repositories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/pkg/apperrors"
)

// CommentRepository defines the interface for comment data operations.
// Comments are owned by an external collaborator store; the realtime gateway
// only delegates mutations here and broadcasts the result.
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	GetCommentsByPostID(postID string) ([]models.Comment, error)
	UpdateComment(id uint, content string) (*models.Comment, error)
	DeleteComment(id uint) (*models.Comment, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL.
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository.
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment.
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return apperrors.Internal("creating comment", err)
	}
	return nil
}

// GetCommentByID retrieves a comment by id.
func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("comment not found")
		}
		return nil, apperrors.Internal("finding comment", err)
	}
	return &comment, nil
}

// GetCommentsByPostID retrieves all comments for a post, newest first.
func (r *PostgresCommentRepository) GetCommentsByPostID(postID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Where("post_id = ?", postID).Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, apperrors.Internal("listing comments", err)
	}
	return comments, nil
}

// UpdateComment replaces a comment's content and returns the updated row.
func (r *PostgresCommentRepository) UpdateComment(id uint, content string) (*models.Comment, error) {
	comment, err := r.GetCommentByID(id)
	if err != nil {
		return nil, err
	}
	comment.Content = content
	if err := r.db.Save(comment).Error; err != nil {
		return nil, apperrors.Internal("updating comment", err)
	}
	return comment, nil
}

// DeleteComment removes a comment and returns the deleted row so callers can
// adjust the owning post.
func (r *PostgresCommentRepository) DeleteComment(id uint) (*models.Comment, error) {
	comment, err := r.GetCommentByID(id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Delete(&models.Comment{}, id).Error; err != nil {
		return nil, apperrors.Internal("deleting comment", err)
	}
	return comment, nil
}
