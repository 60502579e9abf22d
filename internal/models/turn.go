package models

import "time"

// Turn roles. A turn is authored either by the end user or by the model.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation. Turns are immutable once stored;
// a conversation is the set of an owner's turns ordered by CreatedAt.
type Turn struct {
	ID        string    `bson:"_id" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"ownerId"`
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// ValidRole reports whether role is one of the two allowed turn roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
