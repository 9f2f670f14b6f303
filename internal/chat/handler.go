package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nextlearn/nextlearn-lms/internal/lms"
	"github.com/nextlearn/nextlearn-lms/internal/rbac"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the router; the upgrade itself accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inbound struct {
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// ServeWS upgrades the connection and relays course-room messages. Each
// inbound message is persisted before being broadcast, so the history
// endpoint and live listeners agree.
func ServeWS(hub *Hub, store lms.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		userID := rbac.SubjectFromContext(r.Context())

		sender, err := store.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "unknown sender", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Join(courseID, conn)
		defer func() {
			hub.Leave(courseID, conn)
			_ = conn.Close()
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var in inbound
			if err := json.Unmarshal(data, &in); err != nil || in.Text == "" {
				continue
			}

			msg := lms.ChatMessage{
				CourseID:   courseID,
				SenderID:   sender.ID,
				SenderName: sender.Name,
				Text:       in.Text,
				ReplyTo:    in.ReplyTo,
				CreatedAt:  time.Now().UTC(),
			}
			if err := store.InsertMessage(r.Context(), &msg); err != nil {
				slog.Error("persist chat message", "course", courseID, "err", err)
				continue
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			hub.Broadcast(courseID, payload)
		}
	}
}
