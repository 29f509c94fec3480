package server

import (
	"encoding/json"
	"net/http"

	"github.com/punishpad/server/logger"
)

type sendTokenRequest struct {
	Token  string `json:"token"`
	RoomID string `json:"roomId"`
}

type sendTokenResponse struct {
	Message string `json:"message"`
}

// handleSendToken registers a push delivery token against a room. This is a
// plain request/response endpoint, deliberately decoupled from the WebSocket
// connection: the token comes from the browser's push subscription flow.
func (s *GameServer) handleSendToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, sendTokenResponse{Message: "POST required"})
		return
	}

	var req sendTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, sendTokenResponse{Message: "Invalid JSON"})
		return
	}

	if req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, sendTokenResponse{Message: "Room id is required"})
		return
	}

	room, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		writeJSON(w, http.StatusNotFound, sendTokenResponse{Message: "Room not found"})
		return
	}

	if room.AddToken(req.Token) {
		logger.Log.Infof("Registered push token for room %s", req.RoomID)
	}
	writeJSON(w, http.StatusOK, sendTokenResponse{Message: "success"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
