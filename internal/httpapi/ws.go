package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// wsMessage is one client frame on the chat websocket. The user is bound at
// upgrade time via the user_id query parameter.
type wsMessage struct {
	StageID     string `json:"stage_id"`
	UserMessage string `json:"user_message"`
}

// handleAssistantWS serves a persistent chat connection: each inbound frame
// goes through the same dispatch as the POST endpoint and the result is
// written back on the same connection.
func (s *Server) handleAssistantWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "query parameter user_id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = conn.WriteJSON(errorResponse{Error: err.Error(), Code: "invalid_client_message"})
			continue
		}

		res, err := s.dispatch(r.Context(), assistantRequest{
			UserID:      userID,
			StageID:     msg.StageID,
			UserMessage: msg.UserMessage,
		})
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err != nil {
			_ = conn.WriteJSON(errorResponse{Error: err.Error(), Code: "dispatch_failed"})
			continue
		}
		if err := conn.WriteJSON(res); err != nil {
			return
		}
	}
}
