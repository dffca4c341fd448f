package sqlstore

import (
	"fmt"

	"github.com/example/pairchat/internal/models"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	query := s.rebind("INSERT INTO users (username, email, password, is_verified, verification_token) VALUES (?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, user.Username, user.Email, user.Password, user.IsVerified, user.VerificationToken)
	return err
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, email, password, is_verified FROM users WHERE username = ?")
	err := s.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsVerified)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetUserByID(id int) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, email, password, is_verified FROM users WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsVerified)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) SearchUsers(queryStr string, excludeID int) ([]models.User, error) {
	query := s.rebind("SELECT id, username FROM users WHERE username LIKE ? AND id != ? LIMIT 10")
	rows, err := s.db.Query(query, "%"+queryStr+"%", excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLStore) VerifyUser(token string) error {
	query := s.rebind("UPDATE users SET is_verified = TRUE, verification_token = '' WHERE verification_token = ?")
	result, err := s.db.Exec(query, token)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("invalid token")
	}
	return nil
}
