package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/pkg/apperrors"
	"github.com/orbitlabs/orbit/backend/pkg/metrics"
)

// UserRepository defines the interface for user data and social-graph
// operations. Every graph mutation spans the two affected user documents
// inside one transaction and is idempotent at the business level.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserProfile(ctx context.Context, id primitive.ObjectID) (*models.UserProfile, error)
	GetUsers(ctx context.Context, search string, exclude primitive.ObjectID) ([]models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	SoftDeleteUser(ctx context.Context, id primitive.ObjectID) error

	SendFriendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (sender, receiver *models.User, err error)
	AcceptFriendRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (user, requester *models.User, err error)
	RejectFriendRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (user, requester *models.User, err error)
	RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	ToggleFollow(ctx context.Context, actorID, targetID primitive.ObjectID) (following bool, actor, target *models.User, err error)
}

// MongoUserRepository implements UserRepository for MongoDB.
type MongoUserRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(client *mongo.Client, db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{client: client, collection: db.Collection("users")}
}

// CreateUser inserts a new user. The email must be unique among all accounts.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return apperrors.Internal("checking existing email", err)
	}
	if count > 0 {
		return apperrors.InvalidOperation("user with this email already exists")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Status == "" {
		user.Status = models.StatusActive
	}
	user.Followers = []primitive.ObjectID{}
	user.Following = []primitive.ObjectID{}
	user.Friends = []primitive.ObjectID{}
	user.FriendRequestsSent = []primitive.ObjectID{}
	user.FriendRequestsReceived = []primitive.ObjectID{}

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.InvalidOperation("user with this email already exists")
		}
		return apperrors.Internal("inserting user", err)
	}
	return nil
}

// GetUserByID retrieves a non-deleted user by id.
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findActive(ctx, id)
}

// GetUserByEmail retrieves a user by email, including soft-deleted accounts
// so the auth layer can distinguish "deleted" from "unknown".
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("finding user by email", err)
	}
	return &user, nil
}

// GetUserProfile retrieves a user with friends and pending requests resolved
// to full user documents.
func (r *MongoUserRepository) GetUserProfile(ctx context.Context, id primitive.ObjectID) (*models.UserProfile, error) {
	user, err := r.findActive(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{User: *user}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := r.findByIDs(gctx, user.Friends)
		profile.FriendsUsers = users
		return err
	})
	g.Go(func() error {
		users, err := r.findByIDs(gctx, user.FriendRequestsSent)
		profile.RequestsSentUsers = users
		return err
	})
	g.Go(func() error {
		users, err := r.findByIDs(gctx, user.FriendRequestsReceived)
		profile.RequestsReceivedUsers = users
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetUsers lists non-deleted users, optionally filtered by a name search and
// excluding the requesting user.
func (r *MongoUserRepository) GetUsers(ctx context.Context, search string, exclude primitive.ObjectID) ([]models.User, error) {
	filter := bson.M{"is_deleted": bson.M{"$ne": true}}
	if search != "" {
		filter["name"] = bson.M{"$regex": search, "$options": "i"}
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperrors.Internal("listing users", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Internal("decoding users", err)
	}
	return users, nil
}

// UpdateUser applies a profile update and returns the refreshed document.
func (r *MongoUserRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Bio != "" {
		set["bio"] = req.Bio
	}
	if len(req.ProfileImage) > 0 {
		set["profile_image"] = req.ProfileImage
	}
	if len(req.CoverImage) > 0 {
		set["cover_image"] = req.CoverImage
	}
	if req.Location != "" {
		set["location"] = req.Location
	}
	if req.Website != "" {
		set["website"] = req.Website
	}
	if req.Phone != "" {
		set["phone"] = req.Phone
	}

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_deleted": bson.M{"$ne": true}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal("updating user", err)
	}
	return &user, nil
}

// UpdatePassword stores a new password hash and records the change time so
// previously issued tokens can be rejected.
func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password":            hash,
		"password_changed_at": time.Now(),
		"updated_at":          time.Now(),
	}})
	if err != nil {
		return apperrors.Internal("updating password", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// SoftDeleteUser flags the account deleted; the document is never removed.
func (r *MongoUserRepository) SoftDeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_deleted": true,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return apperrors.Internal("deleting user", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// SendFriendRequest records a pending request from sender to receiver. The
// two set-adds run in one transaction; a duplicate or inverse pending
// request, or an existing friendship, is rejected before any write.
func (r *MongoUserRepository) SendFriendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.User, *models.User, error) {
	if senderID == receiverID {
		return nil, nil, apperrors.InvalidOperation("you cannot send a request to yourself")
	}

	err := r.runTxn(ctx, "send_friend_request", func(sc mongo.SessionContext) error {
		sender, err := r.findActiveNamed(sc, senderID, "sender")
		if err != nil {
			return err
		}
		if _, err := r.findActiveNamed(sc, receiverID, "receiver"); err != nil {
			return err
		}

		if sender.HasFriend(receiverID) {
			return apperrors.InvalidOperation("you are already friends")
		}
		if sender.HasSentRequestTo(receiverID) {
			return apperrors.InvalidOperation("friend request already sent")
		}
		if sender.HasReceivedRequestFrom(receiverID) {
			return apperrors.InvalidOperation("friend request already pending from this user")
		}

		if err := r.updateGraph(sc, senderID, bson.M{"$addToSet": bson.M{"friend_requests_sent": receiverID}}); err != nil {
			return err
		}
		return r.updateGraph(sc, receiverID, bson.M{"$addToSet": bson.M{"friend_requests_received": senderID}})
	})
	if err != nil {
		return nil, nil, err
	}
	return r.reloadPair(ctx, senderID, receiverID)
}

// AcceptFriendRequest converts a pending request from requester into a
// friendship, removing both request-set entries atomically.
func (r *MongoUserRepository) AcceptFriendRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.User, *models.User, error) {
	err := r.runTxn(ctx, "accept_friend_request", func(sc mongo.SessionContext) error {
		user, err := r.findActiveNamed(sc, userID, "user")
		if err != nil {
			return err
		}
		if _, err := r.findActiveNamed(sc, requesterID, "requester"); err != nil {
			return err
		}

		if !user.HasReceivedRequestFrom(requesterID) {
			return apperrors.InvalidOperation("no friend request found")
		}

		if err := r.updateGraph(sc, userID, bson.M{
			"$addToSet": bson.M{"friends": requesterID},
			"$pull":     bson.M{"friend_requests_received": requesterID},
		}); err != nil {
			return err
		}
		return r.updateGraph(sc, requesterID, bson.M{
			"$addToSet": bson.M{"friends": userID},
			"$pull":     bson.M{"friend_requests_sent": userID},
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return r.reloadPair(ctx, userID, requesterID)
}

// RejectFriendRequest removes a pending request from requester. Removing a
// request that does not exist is a no-op, not an error.
func (r *MongoUserRepository) RejectFriendRequest(ctx context.Context, userID, requesterID primitive.ObjectID) (*models.User, *models.User, error) {
	err := r.runTxn(ctx, "reject_friend_request", func(sc mongo.SessionContext) error {
		if _, err := r.findActiveNamed(sc, userID, "user"); err != nil {
			return err
		}
		if _, err := r.findActiveNamed(sc, requesterID, "requester"); err != nil {
			return err
		}

		if err := r.updateGraph(sc, userID, bson.M{"$pull": bson.M{"friend_requests_received": requesterID}}); err != nil {
			return err
		}
		return r.updateGraph(sc, requesterID, bson.M{"$pull": bson.M{"friend_requests_sent": userID}})
	})
	if err != nil {
		return nil, nil, err
	}
	return r.reloadPair(ctx, userID, requesterID)
}

// RemoveFriend deletes the friendship in both directions; a no-op when the
// users are not friends.
func (r *MongoUserRepository) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	return r.runTxn(ctx, "remove_friend", func(sc mongo.SessionContext) error {
		if _, err := r.findActiveNamed(sc, userID, "user"); err != nil {
			return err
		}
		if _, err := r.findActiveNamed(sc, friendID, "friend"); err != nil {
			return err
		}

		if err := r.updateGraph(sc, userID, bson.M{"$pull": bson.M{"friends": friendID}}); err != nil {
			return err
		}
		return r.updateGraph(sc, friendID, bson.M{"$pull": bson.M{"friends": userID}})
	})
}

// ToggleFollow follows the target when the actor is not yet following, and
// unfollows otherwise. Single atomic toggle decided by current membership;
// returns the resulting following state.
func (r *MongoUserRepository) ToggleFollow(ctx context.Context, actorID, targetID primitive.ObjectID) (bool, *models.User, *models.User, error) {
	if actorID == targetID {
		return false, nil, nil, apperrors.InvalidOperation("you cannot follow yourself")
	}

	var nowFollowing bool
	err := r.runTxn(ctx, "toggle_follow", func(sc mongo.SessionContext) error {
		actor, err := r.findActiveNamed(sc, actorID, "current user")
		if err != nil {
			return err
		}
		if _, err := r.findActiveNamed(sc, targetID, "target user"); err != nil {
			return err
		}

		if actor.IsFollowing(targetID) {
			nowFollowing = false
			if err := r.updateGraph(sc, actorID, bson.M{"$pull": bson.M{"following": targetID}}); err != nil {
				return err
			}
			return r.updateGraph(sc, targetID, bson.M{"$pull": bson.M{"followers": actorID}})
		}

		nowFollowing = true
		if err := r.updateGraph(sc, actorID, bson.M{"$addToSet": bson.M{"following": targetID}}); err != nil {
			return err
		}
		return r.updateGraph(sc, targetID, bson.M{"$addToSet": bson.M{"followers": actorID}})
	})
	if err != nil {
		return false, nil, nil, err
	}

	actor, target, err := r.reloadPair(ctx, actorID, targetID)
	if err != nil {
		return false, nil, nil, err
	}
	return nowFollowing, actor, target, nil
}

// runTxn executes fn inside a multi-document transaction. A transient abort
// is retried once; a second abort surfaces as Conflict, safe for the caller
// to retry.
func (r *MongoUserRepository) runTxn(ctx context.Context, op string, fn func(sc mongo.SessionContext) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		err := r.tryTxn(ctx, fn)
		if err == nil {
			metrics.GraphMutations.WithLabelValues(op, "ok").Inc()
			return nil
		}
		if !isTransient(err) {
			metrics.GraphMutations.WithLabelValues(op, "rejected").Inc()
			return err
		}
		lastErr = err
	}
	metrics.GraphMutations.WithLabelValues(op, "conflict").Inc()
	return apperrors.Conflict("concurrent graph mutation, please retry", lastErr)
}

func (r *MongoUserRepository) tryTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return apperrors.Internal("starting session", err)
	}
	defer session.EndSession(ctx)

	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(); err != nil {
			return apperrors.Internal("starting transaction", err)
		}
		if err := fn(sc); err != nil {
			_ = session.AbortTransaction(sc)
			return err
		}
		if err := session.CommitTransaction(sc); err != nil {
			return err
		}
		return nil
	})
}

// isTransient reports whether err is a retryable transaction abort.
func isTransient(err error) bool {
	var le interface{ HasErrorLabel(string) bool }
	if errors.As(err, &le) {
		return le.HasErrorLabel("TransientTransactionError") ||
			le.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}

func (r *MongoUserRepository) findActive(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findActiveNamed(ctx, id, "user")
}

func (r *MongoUserRepository) findActiveNamed(ctx context.Context, id primitive.ObjectID, who string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "is_deleted": bson.M{"$ne": true}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound(who + " not found")
		}
		return nil, apperrors.Internal("finding "+who, err)
	}
	return &user, nil
}

func (r *MongoUserRepository) findByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Internal("resolving users", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Internal("decoding users", err)
	}
	return users, nil
}

func (r *MongoUserRepository) updateGraph(sc mongo.SessionContext, id primitive.ObjectID, update bson.M) error {
	withStamp := bson.M{"$set": bson.M{"updated_at": time.Now()}}
	for k, v := range update {
		withStamp[k] = v
	}
	if _, err := r.collection.UpdateOne(sc, bson.M{"_id": id}, withStamp); err != nil {
		return err
	}
	return nil
}

// reloadPair fetches the refreshed graph views of both parties after a
// committed mutation, for notification fan-out.
func (r *MongoUserRepository) reloadPair(ctx context.Context, aID, bID primitive.ObjectID) (*models.User, *models.User, error) {
	var a, b *models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = r.findActive(gctx, aID)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = r.findActive(gctx, bID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
