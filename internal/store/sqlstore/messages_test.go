package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/pairchat/internal/store"
)

func TestAppendMessage(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")
	bob := mustCreateUser(t, testStore, "bob")
	room, _ := testStore.EnsureRoom(alice.ID, bob.ID)

	msg, err := testStore.AppendMessage(room.Key, alice.ID, "hello")
	if err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}
	if msg.ID == 0 {
		t.Error("Expected non-zero message ID")
	}
	if msg.CreatedAt.IsZero() {
		t.Error("Expected assigned timestamp")
	}
	if msg.SenderName != "alice" {
		t.Errorf("Expected sender name 'alice', got '%s'", msg.SenderName)
	}
}

func TestAppendMessageUnknownRoom(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")

	_, err := testStore.AppendMessage("999_1000", alice.ID, "hello")
	if !errors.Is(err, store.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestRecentMessagesOrder(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")
	bob := mustCreateUser(t, testStore, "bob")
	room, _ := testStore.EnsureRoom(alice.ID, bob.ID)

	for i := 0; i < 5; i++ {
		if _, err := testStore.AppendMessage(room.Key, alice.ID, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("Failed to append message %d: %v", i, err)
		}
	}

	messages, err := testStore.RecentMessages(room.Key, 50)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(messages))
	}

	// Oldest-first, newest appears last.
	for i, m := range messages {
		if want := fmt.Sprintf("msg %d", i); m.Content != want {
			t.Errorf("Expected content %q at position %d, got %q", want, i, m.Content)
		}
	}
}

func TestRecentMessagesLimit(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")
	bob := mustCreateUser(t, testStore, "bob")
	room, _ := testStore.EnsureRoom(alice.ID, bob.ID)

	for i := 0; i < 5; i++ {
		testStore.AppendMessage(room.Key, bob.ID, fmt.Sprintf("msg %d", i))
	}

	messages, err := testStore.RecentMessages(room.Key, 2)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	// The window holds the newest two, still oldest-first.
	if messages[0].Content != "msg 3" || messages[1].Content != "msg 4" {
		t.Errorf("Expected window [msg 3, msg 4], got [%s, %s]", messages[0].Content, messages[1].Content)
	}
}
