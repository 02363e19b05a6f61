package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/pkg/apperrors"
)

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	GetAllPosts(ctx context.Context, search string, skip, limit int64) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, author primitive.ObjectID, skip, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, id primitive.ObjectID, req *models.UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	SetLikesDislikes(ctx context.Context, id primitive.ObjectID, likes, dislikes []primitive.ObjectID) (*models.Post, error)
	IncrementCommentsCount(ctx context.Context, id primitive.ObjectID, delta int) error
}

// MongoPostRepository implements PostRepository for MongoDB.
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post.
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Likes = []primitive.ObjectID{}
	post.Dislikes = []primitive.ObjectID{}

	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return apperrors.Internal("inserting post", err)
	}
	return nil
}

// GetPostByID retrieves a post by id.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, apperrors.Internal("finding post", err)
	}
	return &post, nil
}

// GetAllPosts retrieves posts with optional content search, newest first.
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, search string, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{}
	if search != "" {
		filter["content"] = bson.M{"$regex": search, "$options": "i"}
	}
	return r.find(ctx, filter, skip, limit)
}

// GetPostsByAuthor retrieves posts by a specific user, newest first.
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, author primitive.ObjectID, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author": author}, skip, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(skip).SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperrors.Internal("finding posts", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, apperrors.Internal("decoding posts", err)
	}
	return posts, nil
}

// UpdatePost updates an existing post's content and images.
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id primitive.ObjectID, req *models.UpdatePostRequest) (*models.Post, error) {
	set := bson.M{"updated_at": time.Now()}
	if req.Content != "" {
		set["content"] = req.Content
	}
	if len(req.Images) > 0 {
		set["images"] = req.Images
	}

	var post models.Post
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, apperrors.Internal("updating post", err)
	}
	return &post, nil
}

// DeletePost deletes a post by id.
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal("deleting post", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// SetLikesDislikes replaces both reaction sets wholesale, as the realtime
// like/dislike event carries the full sets.
func (r *MongoPostRepository) SetLikesDislikes(ctx context.Context, id primitive.ObjectID, likes, dislikes []primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"likes": likes, "dislikes": dislikes, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, apperrors.Internal("updating likes/dislikes", err)
	}
	return &post, nil
}

// IncrementCommentsCount adjusts the comments counter of a post.
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"comments_count": delta}})
	if err != nil {
		return apperrors.Internal("updating comments count", err)
	}
	return nil
}
