package realtime

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/orbitlabs/orbit/backend/internal/models"
	"github.com/orbitlabs/orbit/backend/internal/repositories"
	"github.com/orbitlabs/orbit/backend/pkg/logger"
)

const defaultChatPageSize = 50

// Gateway accepts persistent client connections, binds each one to a user
// identity and routes inbound channel events to the chat engine and the
// comment/post stores. Mutations triggered here run on background contexts:
// a disconnecting client never aborts a storage write it started.
type Gateway struct {
	hub        *Hub
	registry   *Registry
	dispatcher *Dispatcher
	chats      repositories.ChatRepository
	comments   repositories.CommentRepository
	posts      repositories.PostRepository

	upgrader websocket.Upgrader
}

// NewGateway wires the gateway into the hub's inbound routing.
func NewGateway(hub *Hub, dispatcher *Dispatcher, chats repositories.ChatRepository, comments repositories.CommentRepository, posts repositories.PostRepository) *Gateway {
	g := &Gateway{
		hub:        hub,
		registry:   hub.registry,
		dispatcher: dispatcher,
		chats:      chats,
		comments:   comments,
		posts:      posts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	hub.handler = g.handleEvent
	return g
}

// ServeWS upgrades the connection and registers the session. The user
// identity comes from the handshake: the authenticated context when the
// route is behind auth middleware, the userId query parameter otherwise.
func (g *Gateway) ServeWS(c echo.Context) error {
	userID, _ := c.Get("userID").(string)
	if userID == "" {
		userID = c.QueryParam("userId")
	}
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user identity in handshake")
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to upgrade connection")
	}

	client := &Client{
		SessionID: uuid.NewString(),
		UserID:    userID,
		hub:       g.hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
	}

	g.hub.register <- client
	go client.writePump()
	go client.readPump()
	return nil
}

func (g *Gateway) handleEvent(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Get().Debug("malformed channel frame", zap.String("user", c.UserID), zap.Error(err))
		return
	}

	switch env.Event {
	case EventTyping:
		g.forwardTyping(c, env.Data, EventUserTyping)
	case EventStopTyping:
		g.forwardTyping(c, env.Data, EventUserStoppedTyping)
	case EventFetchMyChats:
		g.fetchMyChats(c, env.Data)
	case EventAddComment:
		g.addComment(c, env.Data)
	case EventUpdateComment:
		g.updateComment(c, env.Data)
	case EventDeleteComment:
		g.deleteComment(c, env.Data)
	case EventUpdateLikeDislike:
		g.updateLikeDislike(c, env.Data)
	default:
		logger.Get().Debug("unknown channel event", zap.String("event", env.Event), zap.String("user", c.UserID))
	}
}

// forwardTyping relays a typing indicator to the recipient unchanged; never
// persisted, dropped when the recipient is offline.
func (g *Gateway) forwardTyping(c *Client, data json.RawMessage, outEvent string) {
	var payload struct {
		ReceiverID string `json:"receiverId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == "" {
		return
	}
	g.dispatcher.EmitTo(payload.ReceiverID, outEvent, map[string]string{"senderId": c.UserID})
}

func (g *Gateway) fetchMyChats(c *Client, data json.RawMessage) {
	var payload struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		Skip       int64  `json:"skip"`
		Limit      int64  `json:"limit"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
	}

	senderID, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return
	}
	ctx := context.Background()

	if payload.ReceiverID == "" {
		summaries, err := g.chats.ListChatsForUser(ctx, senderID)
		if err != nil {
			logger.Get().Warn("listing chats", zap.String("user", c.UserID), zap.Error(err))
			return
		}
		g.dispatcher.EmitTo(c.UserID, EventMyRecentLastChats, summaries)
		return
	}

	receiverID, err := primitive.ObjectIDFromHex(payload.ReceiverID)
	if err != nil {
		return
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = defaultChatPageSize
	}
	view, err := g.chats.GetChatBetween(ctx, senderID, receiverID, payload.Skip, limit)
	if err != nil {
		logger.Get().Warn("fetching chat", zap.String("user", c.UserID), zap.Error(err))
		return
	}
	g.dispatcher.EmitTo(c.UserID, EventMyRecentChats, view)
}

// addComment delegates to the comment store then broadcasts the result to
// all connections: the feed is public, so the update is not targeted.
func (g *Gateway) addComment(c *Client, data json.RawMessage) {
	if g.comments == nil {
		g.commentError(c, "comment store unavailable")
		return
	}
	var payload models.SocketCommentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.commentError(c, "invalid comment payload")
		return
	}
	if payload.UserID == "" {
		payload.UserID = c.UserID
	}

	comment := &models.Comment{PostID: payload.PostID, UserID: payload.UserID, Content: payload.Content}
	if err := g.comments.CreateComment(comment); err != nil {
		logger.Get().Warn("adding comment", zap.Error(err))
		g.commentError(c, "failed to add comment")
		return
	}

	if postID, err := primitive.ObjectIDFromHex(payload.PostID); err == nil {
		if err := g.posts.IncrementCommentsCount(context.Background(), postID, 1); err != nil {
			logger.Get().Warn("incrementing comments count", zap.Error(err))
		}
	}

	g.dispatcher.Broadcast(EventAddedComment, comment)
}

func (g *Gateway) updateComment(c *Client, data json.RawMessage) {
	if g.comments == nil {
		g.commentError(c, "comment store unavailable")
		return
	}
	var payload models.SocketCommentPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ID == 0 {
		g.commentError(c, "comment id is required for update")
		return
	}

	comment, err := g.comments.UpdateComment(payload.ID, payload.Content)
	if err != nil {
		logger.Get().Warn("updating comment", zap.Error(err))
		g.commentError(c, "failed to update comment")
		return
	}
	g.dispatcher.Broadcast(EventUpdatedComment, comment)
}

func (g *Gateway) deleteComment(c *Client, data json.RawMessage) {
	if g.comments == nil {
		g.commentError(c, "comment store unavailable")
		return
	}
	var payload struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ID == 0 {
		g.commentError(c, "comment id is required for delete")
		return
	}

	comment, err := g.comments.DeleteComment(payload.ID)
	if err != nil {
		logger.Get().Warn("deleting comment", zap.Error(err))
		g.commentError(c, "failed to delete comment")
		return
	}

	if postID, err := primitive.ObjectIDFromHex(comment.PostID); err == nil {
		if err := g.posts.IncrementCommentsCount(context.Background(), postID, -1); err != nil {
			logger.Get().Warn("decrementing comments count", zap.Error(err))
		}
	}

	g.dispatcher.Broadcast(EventDeletedComment, map[string]interface{}{
		"commentId": payload.ID,
		"postId":    comment.PostID,
	})
}

func (g *Gateway) updateLikeDislike(c *Client, data json.RawMessage) {
	var payload models.LikeDislikePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	postID, err := primitive.ObjectIDFromHex(payload.PostID)
	if err != nil {
		return
	}
	likes, err := parseObjectIDs(payload.Likes)
	if err != nil {
		return
	}
	dislikes, err := parseObjectIDs(payload.Dislikes)
	if err != nil {
		return
	}

	post, err := g.posts.SetLikesDislikes(context.Background(), postID, likes, dislikes)
	if err != nil {
		logger.Get().Warn("updating likes/dislikes", zap.Error(err))
		return
	}
	g.dispatcher.Broadcast(EventUpdatedLikeDislike, post)
}

func (g *Gateway) commentError(c *Client, message string) {
	g.dispatcher.EmitTo(c.UserID, EventCommentError, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
