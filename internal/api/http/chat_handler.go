package http

import (
	"net/http"
	"time"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/service"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

type ChatHandler struct {
	chatSvc  service.ChatService
	upgrader websocket.Upgrader
}

func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients run on another origin; the access token
			// already authenticates the socket.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := h.chatSvc.ListMessages(r.Context(), userID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.chatSvc.SendMessage(r.Context(), userID(r.Context()), id, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Stream upgrades to a websocket, replays the thread and then pushes every
// new message in order. Messages already covered by the replay are skipped.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt32(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, feed, cancel, err := h.chatSvc.Subscribe(r.Context(), userID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		logger.WarnContext(r.Context(), "Websocket upgrade failed", "rental_id", id, "error", err)
		return
	}
	defer conn.Close()

	// The relay does not preserve order, so duplicates are detected by ID.
	sent := make(map[int64]struct{}, len(history))
	for _, m := range history {
		if err := writeWS(conn, m); err != nil {
			return
		}
		sent[m.ID] = struct{}{}
	}

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case m, ok := <-feed:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscription dropped"),
					time.Now().Add(wsWriteWait))
				return
			}
			if _, dup := sent[m.ID]; dup {
				continue
			}
			if err := writeWS(conn, m); err != nil {
				return
			}
			sent[m.ID] = struct{}{}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, m domain.ChatMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(m)
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and closes done when the connection goes away.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
