package store

import (
	"errors"

	"github.com/example/pairchat/internal/models"
)

// ErrRoomNotFound is returned when an operation references a room key that
// does not exist in the store.
var ErrRoomNotFound = errors.New("room not found")

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	// SearchUsers matches usernames by substring, excluding excludeID so
	// callers never find themselves.
	SearchUsers(query string, excludeID int) ([]models.User, error)
	VerifyUser(token string) error

	// Room operations. EnsureRoom is idempotent: concurrent calls for the
	// same pair yield a single room with both users attached. Lookup is by
	// participant pair, not by key.
	EnsureRoom(userA, userB int) (*models.Room, error)
	RoomParticipants(roomKey string) ([]models.User, error)
	RemoveParticipant(roomKey string, userID int) error
	IsParticipant(roomKey string, userID int) (bool, error)

	// Message operations. AppendMessage assigns the id and timestamp and
	// returns the stored message; it fails with ErrRoomNotFound for an
	// unknown key. RecentMessages returns the newest limit messages,
	// oldest-first.
	AppendMessage(roomKey string, senderID int, content string) (*models.Message, error)
	RecentMessages(roomKey string, limit int) ([]models.Message, error)
}
