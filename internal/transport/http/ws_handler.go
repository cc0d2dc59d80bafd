package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	feed     *app.FeedService
	upgrader websocket.Upgrader
}

func NewWSHandler(feed *app.FeedService) *WSHandler {
	return &WSHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	AssignmentID string `json:"assignmentId"`
}

// ServeFeed streams attempt events for the assignment behind a join code.
// The code is resolved before upgrading so an unknown code gets a plain 404.
func (h *WSHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	assignment, err := h.feed.Resolve(r.Context(), chi.URLParam(r, "joinCode"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	updates, cancel, err := h.feed.Subscribe(r.Context(), assignment.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	// Server read/write timeouts survive the hijack; the feed is long-lived.
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	if err := conn.WriteJSON(outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{AssignmentID: assignment.ID}}); err != nil {
		return
	}

	// The client sends nothing; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.AttemptEvent]{Type: "attempt", Payload: event}); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					log.Printf("ws write error: %v", err)
				}
				return
			}
		case <-closed:
			return
		}
	}
}
