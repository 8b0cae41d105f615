package notify

import (
	"fmt"
	"log"
	"net/http"

	"bilhete/middleware"
	"bilhete/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// WebSocketHandler streams cart notices to a badge surface over a socket.
// Upgrade requests skip the auth middleware, so identity is resolved here
// from the token query param or the session cookie.
func WebSocketHandler(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			raw := r.URL.Query().Get("token")
			if raw == "" {
				if c, err := r.Cookie("token"); err == nil {
					raw = c.Value
				}
			}
			if claims, err := middleware.ValidateJWT(raw); err == nil {
				userID = claims.UserID
			}
		}
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}

		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 16),
			UserID: userID,
		}
		select {
		case hub.register <- client:
		case <-hub.stop:
			conn.Close()
			return
		}

		// writer: forward notices until the hub closes Send
		go func() {
			defer conn.Close()
			for data := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}()

		// reader: we ignore inbound messages, but reading detects disconnects
		go func() {
			defer hub.Unregister(client)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// SSEHandler streams cart notices as server-sent events for surfaces that
// cannot hold a socket open.
func SSEHandler(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		client, cancel := hub.Subscribe(userID)
		defer cancel()

		for {
			select {
			case data, open := <-client.Send:
				if !open {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}
}
