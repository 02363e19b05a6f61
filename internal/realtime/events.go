package realtime

import "encoding/json"

// Outbound event names. These are part of the client contract and mirror
// what the web client listens for.
const (
	EventNewMessage                   = "newMessage"
	EventChat                         = "chat"
	EventMyRecentChats                = "myRecentChats"
	EventMyRecentLastChats            = "myRecentLastChats"
	EventUserTyping                   = "userTyping"
	EventUserStoppedTyping            = "userStoppedTyping"
	EventFriendRequestSent            = "friendRequestSent"
	EventFriendRequestReceived        = "friendRequestReceived"
	EventAcceptFriendRequest          = "userAcceptFriendRequest"
	EventAcceptFriendRequestRequester = "userAcceptFriendRequestUpdateRequester"
	EventRejectFriendRequest          = "userRejectFriendRequest"
	EventRejectFriendRequestRequester = "userRejectFriendRequestUpdateRequester"
	EventGetOnlineUsers               = "getOnlineUsers"
	EventAddedComment                 = "addedComment"
	EventUpdatedComment               = "updatedComment"
	EventDeletedComment               = "deletedComment"
	EventUpdatedLikeDislike           = "updated-like-dislike"
	EventCommentError                 = "commentError"
)

// Inbound event names routed by the gateway.
const (
	EventTyping            = "typing"
	EventStopTyping        = "stopTyping"
	EventFetchMyChats      = "fetchMyChats"
	EventAddComment        = "addComment"
	EventUpdateComment     = "updateComment"
	EventDeleteComment     = "deleteComment"
	EventUpdateLikeDislike = "update-like-dislike"
)

// Envelope is the wire frame for every channel event, inbound and outbound.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func marshalEvent(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
