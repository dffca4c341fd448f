package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/example/pairchat/internal/models"
)

// EnsureRoom returns the room shared by the two users, creating it if the
// pair has never chatted. Lookup is by participant pair so a room is found
// regardless of how its key was derived. Safe under concurrent calls for
// the same pair: inserts are create-if-absent on the key.
func (s *SQLStore) EnsureRoom(userA, userB int) (*models.Room, error) {
	room, err := s.findRoomByPair(userA, userB)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return room, nil
	}

	key := models.RoomKey(userA, userB)

	// A room under the canonical key whose participant set does not match
	// the pair is not ours to touch: membership is fixed at creation.
	// Returning it lets the caller's membership check reject the attempt.
	room, err = s.getRoomByKey(key)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return room, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(s.rebind("INSERT INTO rooms (room_key) VALUES (?) ON CONFLICT (room_key) DO NOTHING"), key); err != nil {
		return nil, err
	}
	for _, id := range []int{userA, userB} {
		if _, err := tx.Exec(s.rebind("INSERT INTO participants (room_key, user_id) VALUES (?, ?) ON CONFLICT (room_key, user_id) DO NOTHING"), key, id); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	room, err = s.findRoomByPair(userA, userB)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s missing after create", key)
	}
	return room, nil
}

func (s *SQLStore) getRoomByKey(key string) (*models.Room, error) {
	var room models.Room
	query := s.rebind("SELECT room_key, created_at FROM rooms WHERE room_key = ?")
	err := s.db.QueryRow(query, key).Scan(&room.Key, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *SQLStore) findRoomByPair(userA, userB int) (*models.Room, error) {
	query := s.rebind(`
		SELECT r.room_key, r.created_at
		FROM rooms r
		JOIN participants p1 ON r.room_key = p1.room_key AND p1.user_id = ?
		JOIN participants p2 ON r.room_key = p2.room_key AND p2.user_id = ?
	`)

	var room models.Room
	err := s.db.QueryRow(query, userA, userB).Scan(&room.Key, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *SQLStore) RoomParticipants(roomKey string) ([]models.User, error) {
	query := s.rebind(`
		SELECT u.id, u.username
		FROM users u
		JOIN participants p ON u.id = p.user_id
		WHERE p.room_key = ?
	`)

	rows, err := s.db.Query(query, roomKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RemoveParticipant revokes a user's room membership. Administrative
// escape hatch; the live relay never calls it.
func (s *SQLStore) RemoveParticipant(roomKey string, userID int) error {
	query := s.rebind("DELETE FROM participants WHERE room_key = ? AND user_id = ?")
	_, err := s.db.Exec(query, roomKey, userID)
	return err
}

// IsParticipant reports whether the user belongs to the room. A missing
// room yields false, never an error.
func (s *SQLStore) IsParticipant(roomKey string, userID int) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM participants WHERE room_key = ? AND user_id = ?)")
	err := s.db.QueryRow(query, roomKey, userID).Scan(&exists)
	return exists, err
}
