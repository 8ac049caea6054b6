package broker

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wemind/models"

	"github.com/gorilla/websocket"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

// dialSocket sobe um servidor com os pumps de verdade e conecta um cliente.
func dialSocket(t *testing.T, db *gorm.DB, h *Hub, userID int64) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := h.NewConn(ws, userID)
		go conn.WritePump()
		conn.ReadPump(db)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

func TestReadPump(t *testing.T) {
	db := testDB(t)
	h := NewHub("AI", slowOpener{})
	group := seedGroup(t, db, false, 1, 2)

	ws := dialSocket(t, db, h, 1)

	t.Run("Subscribe as member", func(t *testing.T) {
		require.NoError(t, ws.WriteJSON(map[string]any{"type": "subscribe", "group_id": group.ID}))
		frame := readFrame(t, ws)
		assert.Equal(t, "subscribed", frame["type"])
		assert.EqualValues(t, group.ID, frame["group_id"])
	})

	t.Run("Send message round trip", func(t *testing.T) {
		require.NoError(t, ws.WriteJSON(map[string]any{
			"type": "send-message", "group_id": group.ID, "content": "hello over the wire",
		}))
		frame := readFrame(t, ws)
		require.Equal(t, "message", frame["type"])
		msg := frame["message"].(map[string]any)
		assert.Equal(t, "hello over the wire", msg["content"])
	})

	t.Run("Flagged message rejected with opening line", func(t *testing.T) {
		require.NoError(t, ws.WriteJSON(map[string]any{
			"type": "send-message", "group_id": group.ID, "content": "sometimes I want to end my life",
		}))
		frame := readFrame(t, ws)
		assert.Equal(t, "content_rejected", frame["type"])
		assert.Equal(t, models.MODERATION_SELF_HARM, frame["detail"])
		assert.Equal(t, "opening", frame["ai_opening_line"])
	})

	t.Run("Invalid frame", func(t *testing.T) {
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{broken")))
		frame := readFrame(t, ws)
		assert.Equal(t, "error", frame["type"])
		assert.Equal(t, "invalid frame", frame["error"])
	})

	t.Run("Unknown frame type", func(t *testing.T) {
		require.NoError(t, ws.WriteJSON(map[string]any{"type": "whatever"}))
		frame := readFrame(t, ws)
		assert.Equal(t, "error", frame["type"])
	})
}

func TestReadPumpMembershipGate(t *testing.T) {
	db := testDB(t)
	h := NewHub("AI", nil)
	group := seedGroup(t, db, false, 1)

	// user 9 não é membro
	ws := dialSocket(t, db, h, 9)

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "subscribe", "group_id": group.ID}))
	frame := readFrame(t, ws)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "not_a_member", frame["error"])

	require.NoError(t, ws.WriteJSON(map[string]any{
		"type": "send-message", "group_id": group.ID, "content": "let me in",
	}))
	frame = readFrame(t, ws)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "not_a_member", frame["error"])
}
