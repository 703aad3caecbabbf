package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// subscribeMessage is the only inbound frame clients send: the set of
// resources they want pushed. An empty list means everything.
type subscribeMessage struct {
	Action    string   `json:"action"`
	Resources []string `json:"resources"`
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Update

	mu    sync.RWMutex
	wants map[string]bool

	closing chan struct{}
}

func (c *client) wantsResource(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.wants) == 0 {
		return true
	}
	return c.wants[name]
}

// push delivers latest-wins: when the buffer is full the oldest queued
// frame is dropped to make room for the newest.
func (c *client) push(u Update) {
	if !c.wantsResource(u.Resource) {
		return
	}
	select {
	case c.send <- u:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- u:
		default:
		}
	}
}

func (c *client) readLoop() {
	defer c.hub.drop(c)
	for {
		var msg subscribeMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Action != "subscribe" {
			continue
		}
		c.mu.Lock()
		c.wants = make(map[string]bool, len(msg.Resources))
		for _, r := range msg.Resources {
			c.wants[r] = true
		}
		c.mu.Unlock()
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.closing:
			return
		case u := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(u); err != nil {
				c.hub.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.drop(c)
				return
			}
		}
	}
}
