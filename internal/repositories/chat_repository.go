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

// ChatRepository defines the interface for conversation data operations.
// A chat is the single thread for one unordered user pair, created lazily
// on first message.
type ChatRepository interface {
	SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, payload *models.CreateChatRequest) (*models.MessageView, error)
	ListChatsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChatSummary, error)
	GetChatBetween(ctx context.Context, a, b primitive.ObjectID, skip, limit int64) (*models.ChatView, error)
	MarkMessagesSeen(ctx context.Context, chatID, readerID primitive.ObjectID) error
}

// MongoChatRepository implements ChatRepository for MongoDB.
type MongoChatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
	users    *mongo.Collection
}

// NewMongoChatRepository creates a new MongoChatRepository.
func NewMongoChatRepository(db *mongo.Database) *MongoChatRepository {
	return &MongoChatRepository{
		chats:    db.Collection("chats"),
		messages: db.Collection("messages"),
		users:    db.Collection("users"),
	}
}

// SendMessage finds or creates the chat for the pair, appends the message
// and bumps the chat's updated_at. The find-or-create is a single upsert
// keyed by the canonical pair, so concurrent first messages between the same
// pair never create two chats.
func (r *MongoChatRepository) SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, payload *models.CreateChatRequest) (*models.MessageView, error) {
	sender, err := r.requireUser(ctx, senderID, "sender")
	if err != nil {
		return nil, err
	}
	if _, err := r.requireUser(ctx, receiverID, "receiver"); err != nil {
		return nil, err
	}

	now := time.Now()
	pairKey := models.PairKey(senderID, receiverID)

	var chat models.Chat
	err = r.chats.FindOneAndUpdate(ctx,
		bson.M{"pair_key": pairKey},
		bson.M{
			"$setOnInsert": bson.M{
				"pair_key":    pairKey,
				"sender_id":   senderID,
				"receiver_id": receiverID,
				"messages":    []primitive.ObjectID{},
				"created_at":  now,
			},
			"$set": bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&chat)
	if err != nil {
		return nil, apperrors.Internal("upserting chat", err)
	}

	msg := models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    chat.ID,
		SenderID:  senderID,
		Text:      payload.Text,
		ImageURL:  payload.ImageURL,
		VideoURL:  payload.VideoURL,
		IsSeen:    false,
		CreatedAt: now,
	}
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return nil, apperrors.Internal("inserting message", err)
	}

	if _, err := r.chats.UpdateOne(ctx, bson.M{"_id": chat.ID}, bson.M{
		"$push": bson.M{"messages": msg.ID},
		"$set":  bson.M{"updated_at": now},
	}); err != nil {
		return nil, apperrors.Internal("appending message to chat", err)
	}

	metrics.MessagesSent.Inc()
	return &models.MessageView{Message: msg, Sender: sender}, nil
}

// ListChatsForUser returns every chat containing the user, each annotated
// with only its most recent message, most recently active first.
func (r *MongoChatRepository) ListChatsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ChatSummary, error) {
	cursor, err := r.chats.Find(ctx,
		bson.M{"$or": bson.A{bson.M{"sender_id": userID}, bson.M{"receiver_id": userID}}},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, apperrors.Internal("listing chats", err)
	}
	defer cursor.Close(ctx)

	var chats []models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, apperrors.Internal("decoding chats", err)
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for i := range chats {
		chat := &chats[i]
		last, err := r.lastMessage(ctx, chat.ID)
		if err != nil {
			return nil, err
		}

		sender, receiver, err := r.loadParticipants(ctx, chat)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, models.ChatSummary{
			ID:       chat.ID,
			Sender:   sender,
			Receiver: receiver,
			LastMsg:  last,
		})
	}
	return summaries, nil
}

// GetChatBetween returns the chat for the pair with one page of messages.
// The page takes the `limit` most recent messages after skipping `skip`
// from the most-recent end, then reverses them into chronological order.
// No chat yet is an empty result, not an error.
func (r *MongoChatRepository) GetChatBetween(ctx context.Context, a, b primitive.ObjectID, skip, limit int64) (*models.ChatView, error) {
	var chat models.Chat
	err := r.chats.FindOne(ctx, bson.M{"pair_key": models.PairKey(a, b)}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.ChatView{Messages: []models.MessageView{}}, nil
		}
		return nil, apperrors.Internal("finding chat", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		findOpts.SetLimit(limit)
	}
	cursor, err := r.messages.Find(ctx, bson.M{"chat_id": chat.ID}, findOpts)
	if err != nil {
		return nil, apperrors.Internal("finding messages", err)
	}
	defer cursor.Close(ctx)

	var page []models.Message
	if err := cursor.All(ctx, &page); err != nil {
		return nil, apperrors.Internal("decoding messages", err)
	}
	reverseMessages(page)

	sender, receiver, err := r.loadParticipants(ctx, &chat)
	if err != nil {
		return nil, err
	}

	byID := map[primitive.ObjectID]*models.User{}
	if sender != nil {
		byID[sender.ID] = sender
	}
	if receiver != nil {
		byID[receiver.ID] = receiver
	}

	views := make([]models.MessageView, 0, len(page))
	for _, m := range page {
		views = append(views, models.MessageView{Message: m, Sender: byID[m.SenderID]})
	}

	return &models.ChatView{
		ID:       chat.ID,
		Sender:   sender,
		Receiver: receiver,
		Messages: views,
	}, nil
}

// MarkMessagesSeen flips the seen flag on all messages in the chat that the
// reader did not author. Seen is the only mutation messages permit.
func (r *MongoChatRepository) MarkMessagesSeen(ctx context.Context, chatID, readerID primitive.ObjectID) error {
	_, err := r.messages.UpdateMany(ctx,
		bson.M{"chat_id": chatID, "sender_id": bson.M{"$ne": readerID}, "is_seen": false},
		bson.M{"$set": bson.M{"is_seen": true}},
	)
	if err != nil {
		return apperrors.Internal("marking messages seen", err)
	}
	return nil
}

// lastMessage fetches the most recent message of a chat, ties broken by
// insertion order.
func (r *MongoChatRepository) lastMessage(ctx context.Context, chatID primitive.ObjectID) (*models.MessageView, error) {
	var msg models.Message
	err := r.messages.FindOne(ctx,
		bson.M{"chat_id": chatID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("finding last message", err)
	}

	sender, err := r.findUser(ctx, msg.SenderID)
	if err != nil {
		return nil, err
	}
	return &models.MessageView{Message: msg, Sender: sender}, nil
}

func (r *MongoChatRepository) loadParticipants(ctx context.Context, chat *models.Chat) (*models.User, *models.User, error) {
	var sender, receiver *models.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sender, err = r.findUser(gctx, chat.SenderID)
		return err
	})
	g.Go(func() error {
		var err error
		receiver, err = r.findUser(gctx, chat.ReceiverID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sender, receiver, nil
}

// findUser resolves a participant, tolerating soft-deleted accounts so old
// conversations stay readable.
func (r *MongoChatRepository) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperrors.Internal("resolving chat participant", err)
	}
	return &user, nil
}

// requireUser verifies a live account exists before accepting a message.
func (r *MongoChatRepository) requireUser(ctx context.Context, id primitive.ObjectID, who string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id, "is_deleted": bson.M{"$ne": true}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound(who + " not found")
		}
		return nil, apperrors.Internal("finding "+who, err)
	}
	return &user, nil
}

func reverseMessages(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
