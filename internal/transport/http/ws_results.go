package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"duet-quiz-service/internal/app"
	"duet-quiz-service/internal/domain"
)

// ResultsFeedHandler streams result events to a quiz creator over a
// websocket, so a shared-mode owner sees each responder's outcome arrive
// without polling.
type ResultsFeedHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewResultsFeedHandler(service *app.QuizService) *ResultsFeedHandler {
	return &ResultsFeedHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type feedMessage struct {
	Type    string        `json:"type"`
	Payload domain.Result `json:"payload"`
}

// ServeWS upgrades the request and forwards result events until the client
// disconnects.
func (h *ResultsFeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	instanceID := r.URL.Query().Get("instanceId")
	ownerID := r.URL.Query().Get("ownerId")
	if instanceID == "" || ownerID == "" {
		http.Error(w, "missing instanceId or ownerId", http.StatusBadRequest)
		return
	}

	events, cancel, err := h.service.StreamResults(r.Context(), instanceID, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Reader goroutine: the feed is one-way, reads only detect disconnects.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case result, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(feedMessage{Type: "result", Payload: result}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-disconnected:
			return
		case <-r.Context().Done():
			return
		}
	}
}
