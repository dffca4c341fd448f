package models

import (
	"fmt"
	"time"
)

type User struct {
	ID                int    `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Password          string `json:"-"`
	IsVerified        bool   `json:"is_verified"`
	VerificationToken string `json:"-"`
}

// Room is a two-party chat room. The key is derived from the participant
// pair and doubles as the fan-out group name. The participant set is fixed
// at creation.
type Room struct {
	Key          string    `json:"key"`
	CreatedAt    time.Time `json:"created_at"`
	Participants []User    `json:"participants,omitempty"`
}

type Message struct {
	ID         int       `json:"id"`
	RoomKey    string    `json:"room_key"`
	SenderID   int       `json:"sender_id"`
	SenderName string    `json:"sender_username"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// RoomKey derives the canonical room key for a pair of user IDs. It is
// commutative: RoomKey(a, b) == RoomKey(b, a).
func RoomKey(a, b int) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}
