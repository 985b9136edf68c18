package notify

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"aichef/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Sessions is what the websocket handler needs from the session registry.
type Sessions interface {
	Notifications(sessionID string) []models.Notification
	Dismiss(sessionID string, id int64)
}

// Frame is the message pushed to websocket clients.
type Frame struct {
	Action        string                `json:"action"`
	Notifications []models.Notification `json:"notifications"`
}

// inboundPayload is what clients may send back.
type inboundPayload struct {
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
}

// EncodeSnapshot renders a snapshot frame.
func EncodeSnapshot(ns []models.Notification) []byte {
	if ns == nil {
		ns = []models.Notification{}
	}
	data, _ := json.Marshal(Frame{Action: "snapshot", Notifications: ns})
	return data
}

// WebSocketHandler upgrades the request and streams the session's
// notification snapshots. sessionID extracts the room from the request.
func WebSocketHandler(hub *Hub, sessions Sessions, sessionID func(*http.Request) string, origins func(string) bool, log *zap.Logger) httprouter.Handle {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins == nil || origins(origin)
		},
	}
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		room := sessionID(r)
		if room == "" {
			http.Error(w, "Missing session", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &Client{
			Conn: conn,
			Send: make(chan []byte, 16),
			Room: room,
		}
		// the initial snapshot goes in before registration so it is first in line
		client.Send <- EncodeSnapshot(sessions.Notifications(room))
		if !hub.Register(client) {
			conn.Close()
			return
		}
		log.Debug("notification stream opened", zap.String("session", room))

		go writePump(client)
		go readPump(client, hub, sessions, log)
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(c *Client, hub *Hub, sessions Sessions, log *zap.Logger) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var in inboundPayload
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Debug("invalid websocket payload", zap.Error(err))
			continue
		}

		switch in.Action {
		case "dismiss":
			sessions.Dismiss(c.Room, in.ID)
		case "sync":
			hub.Publish(c.Room, EncodeSnapshot(sessions.Notifications(c.Room)))
		default:
			log.Debug("unknown websocket action", zap.String("action", in.Action))
		}
	}
}
