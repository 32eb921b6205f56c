package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsReadLimit     = 1 << 20
	wsReadDeadline  = 120 * time.Second
	wsWriteDeadline = 10 * time.Second
)

type wsClientMessage struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type wsServerMessage struct {
	ConversationID string `json:"conversation_id"`
	Response       string `json:"response"`
}

type wsErrorMessage struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// handleChatWS runs a chat conversation over a single websocket connection.
// Each inbound frame is one turn; the reply frame carries the conversation id
// so a client that connected without one can keep it for the rest of the
// conversation.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	// The conversation id from the first frame (or a fresh one) sticks for
	// the lifetime of the connection unless the client switches explicitly.
	connID := ""

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		if msgType != websocket.TextMessage {
			continue
		}

		var msg wsClientMessage
		if err := decodeWSMessage(data, &msg); err != nil {
			if writeErr := writeWSJSON(conn, wsErrorMessage{
				Error: err.Error(),
				Code:  "invalid_client_message",
			}); writeErr != nil {
				return
			}
			continue
		}

		if id := strings.TrimSpace(msg.ConversationID); id != "" {
			connID = id
		} else if connID == "" {
			connID = uuid.NewString()
		}

		response := s.handler.HandleMessage(r.Context(), connID, msg.Message)
		if err := writeWSJSON(conn, wsServerMessage{
			ConversationID: connID,
			Response:       response,
		}); err != nil {
			return
		}
	}
}

func decodeWSMessage(data []byte, out *wsClientMessage) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(data, out)
}

func writeWSJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return conn.WriteJSON(v)
}
