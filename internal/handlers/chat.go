package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/example/pairchat/internal/middleware"
	"github.com/example/pairchat/internal/models"
	"github.com/example/pairchat/internal/store"
)

type ChatHandler struct {
	Store  store.Store
	Logger zerolog.Logger
}

// StartChat ensures the room between the caller and the peer exists and
// returns it. Safe to call repeatedly for the same pair.
func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	peerID, err := strconv.Atoi(mux.Vars(r)["peerID"])
	if err != nil {
		http.Error(w, "Invalid peer id", http.StatusBadRequest)
		return
	}

	peer, err := h.Store.GetUserByID(peerID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	room, err := h.Store.EnsureRoom(userID, peer.ID)
	if err != nil {
		h.Logger.Error().Err(err).Msg("ensure room failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	isParticipant, err := h.Store.IsParticipant(room.Key, userID)
	if err != nil || !isParticipant {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	room.Participants, _ = h.Store.RoomParticipants(room.Key)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

// GetMessages returns the newest page of the room's durable history,
// oldest-first. Backs the chat page's initial load; live delivery and
// reconnect replay go through the WebSocket instead.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	peerID, err := strconv.Atoi(mux.Vars(r)["peerID"])
	if err != nil {
		http.Error(w, "Invalid peer id", http.StatusBadRequest)
		return
	}

	roomKey := models.RoomKey(userID, peerID)
	isParticipant, err := h.Store.IsParticipant(roomKey, userID)
	if err != nil || !isParticipant {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	messages, err := h.Store.RecentMessages(roomKey, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	json.NewEncoder(w).Encode(messages)
}
