package sqlstore

import (
	"github.com/example/pairchat/internal/models"
	"github.com/example/pairchat/internal/store"
)

// AppendMessage durably appends a message and returns it with the assigned
// id and timestamp. The timestamp totally orders messages within a room;
// the id breaks ties between rows created in the same tick.
func (s *SQLStore) AppendMessage(roomKey string, senderID int, content string) (*models.Message, error) {
	var exists bool
	if err := s.db.QueryRow(s.rebind("SELECT EXISTS(SELECT 1 FROM rooms WHERE room_key = ?)"), roomKey).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrRoomNotFound
	}

	msg := &models.Message{
		RoomKey:  roomKey,
		SenderID: senderID,
		Content:  content,
	}
	query := s.rebind("INSERT INTO messages (room_key, sender_id, content) VALUES (?, ?, ?) RETURNING id")
	if err := s.db.QueryRow(query, roomKey, senderID, content).Scan(&msg.ID); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(s.rebind("SELECT created_at FROM messages WHERE id = ?"), msg.ID).Scan(&msg.CreatedAt); err != nil {
		return nil, err
	}

	if user, err := s.GetUserByID(senderID); err == nil {
		msg.SenderName = user.Username
	}
	return msg, nil
}

// RecentMessages returns the newest limit messages of a room, oldest-first.
func (s *SQLStore) RecentMessages(roomKey string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.rebind(`
		SELECT id, room_key, sender_id, sender_username, content, created_at FROM (
			SELECT m.id AS id, m.room_key AS room_key, m.sender_id AS sender_id,
			       u.username AS sender_username, m.content AS content, m.created_at AS created_at
			FROM messages m
			JOIN users u ON m.sender_id = u.id
			WHERE m.room_key = ?
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?
		) latest
		ORDER BY created_at ASC, id ASC
	`)

	rows, err := s.db.Query(query, roomKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomKey, &m.SenderID, &m.SenderName, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
