package sqlstore

import (
	"sync"
	"testing"

	"github.com/example/pairchat/internal/models"
)

func TestEnsureRoomCreatesOnce(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")
	bob := mustCreateUser(t, testStore, "bob")

	room1, err := testStore.EnsureRoom(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to ensure room: %v", err)
	}
	if room1.Key != models.RoomKey(alice.ID, bob.ID) {
		t.Errorf("Expected key %s, got %s", models.RoomKey(alice.ID, bob.ID), room1.Key)
	}

	// Same pair in reverse order resolves to the same room.
	room2, err := testStore.EnsureRoom(bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("Failed to ensure room: %v", err)
	}
	if room2.Key != room1.Key {
		t.Errorf("Expected same room, got %s and %s", room1.Key, room2.Key)
	}

	participants, err := testStore.RoomParticipants(room1.Key)
	if err != nil {
		t.Fatalf("Failed to get participants: %v", err)
	}
	if len(participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(participants))
	}
}

func TestEnsureRoomConcurrent(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")
	bob := mustCreateUser(t, testStore, "bob")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			if _, err := testStore.EnsureRoom(a, b); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("EnsureRoom failed: %v", err)
	}

	var count int
	if err := testStore.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&count); err != nil {
		t.Fatalf("Failed to count rooms: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 room, got %d", count)
	}

	participants, _ := testStore.RoomParticipants(models.RoomKey(alice.ID, bob.ID))
	if len(participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(participants))
	}
}

func TestEnsureRoomDoesNotReattachRevokedParticipant(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")
	bob := mustCreateUser(t, testStore, "bob")

	room, err := testStore.EnsureRoom(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to ensure room: %v", err)
	}
	if err := testStore.RemoveParticipant(room.Key, bob.ID); err != nil {
		t.Fatalf("Failed to remove participant: %v", err)
	}

	// The pair no longer matches, but the existing room must be returned
	// untouched rather than recreated with bob reattached.
	again, err := testStore.EnsureRoom(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to ensure room: %v", err)
	}
	if again.Key != room.Key {
		t.Errorf("Expected key %s, got %s", room.Key, again.Key)
	}

	ok, err := testStore.IsParticipant(room.Key, bob.ID)
	if err != nil {
		t.Fatalf("IsParticipant failed: %v", err)
	}
	if ok {
		t.Error("Expected bob to stay revoked after EnsureRoom")
	}
}

func TestIsParticipant(t *testing.T) {
	SetupTestDB(t)
	defer TeardownTestDB()

	alice := mustCreateUser(t, testStore, "alice")
	bob := mustCreateUser(t, testStore, "bob")
	carol := mustCreateUser(t, testStore, "carol")

	room, err := testStore.EnsureRoom(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to ensure room: %v", err)
	}

	ok, err := testStore.IsParticipant(room.Key, alice.ID)
	if err != nil || !ok {
		t.Errorf("Expected alice to be a participant (ok=%v, err=%v)", ok, err)
	}

	ok, err = testStore.IsParticipant(room.Key, carol.ID)
	if err != nil {
		t.Fatalf("IsParticipant failed: %v", err)
	}
	if ok {
		t.Error("Expected carol not to be a participant")
	}

	// Fails closed for a room that does not exist.
	ok, err = testStore.IsParticipant("999_1000", alice.ID)
	if err != nil {
		t.Fatalf("IsParticipant failed: %v", err)
	}
	if ok {
		t.Error("Expected false for unknown room")
	}
}
