// network/connection.go
package network

import (
	"encoding/json"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

// Connection abstracts the transport under a session. Frames are text
// WebSocket messages carrying one JSON event envelope each.
type Connection interface {
	Send(eventType string, seq uint64, payload interface{}) error
	ReadEvent() (*Event, error)
	Close() error
	RemoteAddr() net.Addr
}

type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

// Send marshals one envelope and writes it as a single frame. The mutex
// serializes concurrent writers; gorilla allows only one at a time.
func (c *WSConnection) Send(eventType string, seq uint64, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	return c.conn.WriteJSON(&Event{
		Type:    eventType,
		Seq:     seq,
		Payload: data,
	})
}

// ReadEvent blocks for the next frame and decodes its envelope. A nil event
// means the transport itself failed; decode and validation errors come back
// with a non-nil event so the caller can drop the frame (and error-ack by
// Seq) without tearing down the connection.
func (c *WSConnection) ReadEvent() (*Event, error) {
	_, frame, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return DecodeEvent(frame)
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
