package controllers

import (
	"log"
	"net/http"

	dbpkg "wemind/db"
	"wemind/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// o front roda em origem separada; auth é pelo token, não pela origem
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /api/ws?token=
//
// Upgrade do websocket de chat. Browsers não mandam header em handshake de
// websocket, então o token vem na query string.
func ChatSocket(c *gin.Context) {
	token := c.Query("token")
	userID, ok := VerifyToken(token)
	if !ok {
		RespondError(c, "invalid token", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		RespondError(c, "user not found", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	conn := hub.NewConn(ws, user.ID)
	go conn.WritePump()
	conn.ReadPump(db)
}
