package sqlstore

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/pairchat/internal/models"
)

var testStore *SQLStore

func SetupTestDB(t *testing.T) {
	var err error
	testStore, err = New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
}

func TeardownTestDB() {
	testStore.db.Close()
}

// mustCreateUser inserts a user and returns it with its assigned ID.
func mustCreateUser(t *testing.T, s *SQLStore, username string) *models.User {
	t.Helper()
	err := s.CreateUser(&models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "pass",
	})
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	user, err := s.GetUserByUsername(username)
	if err != nil {
		t.Fatalf("Failed to load user %s: %v", username, err)
	}
	return user
}
