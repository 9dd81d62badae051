package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"notehub/internal/note/model"
	"notehub/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser sends no Origin header we can trust more than the JWT
	// already validated by the middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one user's live feed connection.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID string
	Email  string
	Send   chan []byte
}

// ServeWs upgrades the request and registers the user's feed. Identity
// comes from the auth middleware, never from the client.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID, email string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Email:  email,
		Send:   make(chan []byte, 256),
	}

	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		switch msg.Type {
		case AddCollaboratorType:
			c.handleAddCollaborator(msg.Payload)
		default:
			logger.Sugar.Warnf("Ignoring unknown message type %q from user %s", msg.Type, c.UserID)
		}
	}
}

// handleAddCollaborator is the socket face of the collaboration gateway.
// The requester identity is the server-authoritative connection owner, so
// the same ownership rules apply as for sharing over REST.
func (c *Client) handleAddCollaborator(payload json.RawMessage) {
	var req model.AddCollaboratorRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.DocID == "" || req.CollaboratorID == "" {
		c.reply(ErrorType, "docId and collaboratorId are required")
		return
	}

	if c.Hub.gateway == nil {
		c.reply(ErrorType, "collaboration gateway unavailable")
		return
	}

	if err := c.Hub.gateway(c.UserID, req.DocID, req.CollaboratorID); err != nil {
		logger.Sugar.Infof("addCollaborator rejected for user %s on note %s: %v", c.UserID, req.DocID, err)
		c.reply(ErrorType, err.Error())
		return
	}
	c.reply(AckType, "collaborator added")
}

func (c *Client) reply(msgType, detail string) {
	payload, _ := json.Marshal(map[string]string{"message": detail})
	out, _ := json.Marshal(WSMessage{Type: msgType, UserID: c.UserID, Payload: payload})
	select {
	case c.Send <- out:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
