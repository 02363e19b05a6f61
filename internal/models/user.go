package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles and account states.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusActive  = "in-progress"
	StatusBlocked = "blocked"
)

// User is the user document. Graph membership (followers, friends, pending
// requests) lives as ObjectID sets on the document and is mutated only
// through the graph operations of the user repository, never by
// read-modify-write of the arrays.
type User struct {
	ID                     primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name                   string               `bson:"name" json:"name"`
	Email                  string               `bson:"email" json:"email"`
	Password               string               `bson:"password" json:"-"`
	Bio                    string               `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfileImage           []string             `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	CoverImage             []string             `bson:"cover_image,omitempty" json:"coverImage,omitempty"`
	Followers              []primitive.ObjectID `bson:"followers" json:"followers"`
	Following              []primitive.ObjectID `bson:"following" json:"following"`
	Friends                []primitive.ObjectID `bson:"friends" json:"friends"`
	FriendRequestsSent     []primitive.ObjectID `bson:"friend_requests_sent" json:"friendRequestsSent"`
	FriendRequestsReceived []primitive.ObjectID `bson:"friend_requests_received" json:"friendRequestsReceived"`
	IsVerified             bool                 `bson:"is_verified" json:"isVerified"`
	Role                   string               `bson:"role" json:"role"`
	Location               string               `bson:"location,omitempty" json:"location,omitempty"`
	Website                string               `bson:"website,omitempty" json:"website,omitempty"`
	Phone                  string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Status                 string               `bson:"status" json:"status"`
	IsDeleted              bool                 `bson:"is_deleted" json:"isDeleted"`
	PasswordChangedAt      *time.Time           `bson:"password_changed_at,omitempty" json:"-"`
	CreatedAt              time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt              time.Time            `bson:"updated_at" json:"updatedAt"`
}

// HasFriend reports whether id is in the user's friends set.
func (u *User) HasFriend(id primitive.ObjectID) bool {
	return containsID(u.Friends, id)
}

// HasSentRequestTo reports whether a request to id is pending.
func (u *User) HasSentRequestTo(id primitive.ObjectID) bool {
	return containsID(u.FriendRequestsSent, id)
}

// HasReceivedRequestFrom reports whether a request from id is pending.
func (u *User) HasReceivedRequestFrom(id primitive.ObjectID) bool {
	return containsID(u.FriendRequestsReceived, id)
}

// IsFollowing reports whether the user follows id.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return containsID(u.Following, id)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// UserProfile is a user with the graph sets resolved to user documents,
// returned by the get-by-id endpoint.
type UserProfile struct {
	User
	FriendsUsers          []User `json:"friendsUsers"`
	RequestsSentUsers     []User `json:"requestsSentUsers"`
	RequestsReceivedUsers []User `json:"requestsReceivedUsers"`
}

// CreateUserRequest defines the registration payload.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest defines the profile-update payload.
type UpdateUserRequest struct {
	Name         string   `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio          string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	ProfileImage []string `json:"profileImage,omitempty"`
	CoverImage   []string `json:"coverImage,omitempty"`
	Location     string   `json:"location,omitempty"`
	Website      string   `json:"website,omitempty" validate:"omitempty,url"`
	Phone        string   `json:"phone,omitempty"`
}

// LoginRequest defines the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest defines the token-refresh payload.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ChangePasswordRequest defines the password-change payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// FriendRequestPayload targets the receiver of a new friend request.
type FriendRequestPayload struct {
	ReceiverID string `json:"receiverId" validate:"required"`
}

// FriendRequestDecisionPayload identifies the requester whose pending
// request is accepted or rejected.
type FriendRequestDecisionPayload struct {
	RequesterID string `json:"requesterId" validate:"required"`
}

// RemoveFriendPayload identifies the friend to remove.
type RemoveFriendPayload struct {
	FriendID string `json:"friendId" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims.
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
