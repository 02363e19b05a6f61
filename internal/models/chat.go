package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is the single conversation document for one unordered pair of users.
// PairKey canonicalizes the pair so (A,B) and (B,A) resolve to the same
// document; a unique index on it makes find-or-create race-free.
type Chat struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	PairKey    string               `bson:"pair_key" json:"-"`
	SenderID   primitive.ObjectID   `bson:"sender_id" json:"senderId"`
	ReceiverID primitive.ObjectID   `bson:"receiver_id" json:"receiverId"`
	Messages   []primitive.ObjectID `bson:"messages" json:"messages"`
	CreatedAt  time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updated_at" json:"updatedAt"`
}

// Message belongs to exactly one chat. Immutable after creation except for
// the seen flag.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ChatID    primitive.ObjectID `bson:"chat_id" json:"chatId"`
	SenderID  primitive.ObjectID `bson:"sender_id" json:"senderId"`
	Text      string             `bson:"text" json:"text"`
	ImageURL  string             `bson:"image_url" json:"imageUrl"`
	VideoURL  string             `bson:"video_url" json:"videoUrl"`
	IsSeen    bool               `bson:"is_seen" json:"isSeen"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// MessageView is a message with its author resolved.
type MessageView struct {
	Message
	Sender *User `json:"sender,omitempty"`
}

// ChatSummary annotates a chat with only its most recent message, for the
// conversation list (most recently active first).
type ChatSummary struct {
	ID       primitive.ObjectID `json:"_id"`
	Sender   *User              `json:"senderId"`
	Receiver *User              `json:"receiverId"`
	LastMsg  *MessageView       `json:"lastMsg"`
}

// ChatView is a chat with a page of its messages in chronological order.
type ChatView struct {
	ID       primitive.ObjectID `json:"_id"`
	Sender   *User              `json:"senderId,omitempty"`
	Receiver *User              `json:"receiverId,omitempty"`
	Messages []MessageView      `json:"messages"`
}

// PairKey returns the canonical key for an unordered user pair: the two hex
// ids joined lexicographically, so lookups are order-independent.
func PairKey(a, b primitive.ObjectID) string {
	ah, bh := a.Hex(), b.Hex()
	if ah < bh {
		return ah + ":" + bh
	}
	return bh + ":" + ah
}

// CreateChatRequest defines the send-message payload.
type CreateChatRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Text       string `json:"text,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	VideoURL   string `json:"videoUrl,omitempty"`
}

// MarkSeenRequest identifies the conversation whose counterpart messages
// the caller has read.
type MarkSeenRequest struct {
	ChatID string `json:"chatId" validate:"required"`
}
