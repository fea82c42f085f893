package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"redking/internal/app"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one websocket connection. Its id doubles as the player id for
// the lifetime of the connection; there is no reconnection.
type Client struct {
	id   string
	hub  *Hub
	svc  *app.Service
	conn *websocket.Conn
	send chan []byte
	log  *zap.Logger
}

func newClient(id string, hub *Hub, svc *app.Service, conn *websocket.Conn, log *zap.Logger) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		svc:  svc,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
	}
}

// frame is the wire shape in both directions.
type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// readPump consumes inbound frames until the connection dies, then routes
// the player through the leave path. Malformed frames are dropped; the
// session continues.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c.id)
		c.svc.LeaveRoom(c.id)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("connection closed unexpectedly",
					zap.String("player", c.id),
					zap.Error(err),
				)
			}
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Debug("malformed frame dropped",
				zap.String("player", c.id),
				zap.Error(err),
			)
			continue
		}
		c.dispatch(f)
	}
}

// writePump drains the outbound buffer and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
