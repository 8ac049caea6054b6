package broker

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jinzhu/gorm"
)

const writeWait = 10 * time.Second
const pongWait = 60 * time.Second
const pingPeriod = (pongWait * 9) / 10
const maxMessageSize = 8192
const sendBuffer = 64

// Conn é uma sessão de transporte efêmera amarrada a uma identidade
// autenticada. Vive só enquanto o websocket vive; reconectar cria outra.
type Conn struct {
	ID     string
	UserID int64

	hub     *Hub
	ws      *websocket.Conn
	send    chan []byte
	groupID int64
}

// NewConn registra uma conexão recém-aceita no hub.
func (h *Hub) NewConn(ws *websocket.Conn, userID int64) *Conn {
	c := &Conn{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    h,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
	return c
}

// inboundFrame são os dois shapes que o cliente manda pelo socket.
type inboundFrame struct {
	Type    string `json:"type"` // "subscribe" | "send-message"
	GroupID int64  `json:"group_id"`
	Content string `json:"content"`
}

// ReadPump consome frames do cliente até o socket cair. Deve rodar na
// goroutine do handler; WritePump roda em outra.
func (c *Conn) ReadPump(db *gorm.DB) {
	defer func() {
		c.hub.Disconnect(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("broker: conn %s read error: %v", c.ID, err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.hub.sendTo(c, map[string]any{"type": "error", "error": "invalid frame"})
			continue
		}

		switch frame.Type {
		case "subscribe":
			if !c.hub.memberOf(db, frame.GroupID, c.UserID) {
				c.hub.sendTo(c, map[string]any{"type": "error", "error": "not_a_member"})
				continue
			}
			c.hub.Subscribe(c, frame.GroupID)
			c.hub.sendTo(c, map[string]any{"type": "subscribed", "group_id": frame.GroupID})

		case "send-message":
			res, err := c.hub.Send(db, frame.GroupID, c.UserID, frame.Content)
			if errors.Is(err, ErrNotAMember) {
				c.hub.sendTo(c, map[string]any{"type": "error", "error": "not_a_member"})
				continue
			}
			if err != nil {
				log.Printf("broker: conn %s send error: %v", c.ID, err)
				c.hub.sendTo(c, map[string]any{"type": "error", "error": "send failed"})
				continue
			}
			if !res.OK {
				c.hub.sendTo(c, map[string]any{
					"type":            "content_rejected",
					"id":              res.MessageID,
					"detail":          res.Detail,
					"ai_opening_line": res.OpeningLine,
				})
			}

		default:
			c.hub.sendTo(c, map[string]any{"type": "error", "error": "unknown frame type"})
		}
	}
}

// WritePump drena o buffer de saída e mantém o socket vivo com pings.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
