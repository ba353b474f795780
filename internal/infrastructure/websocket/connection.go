package websocket

import (
	"sync"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"
	"marketplace-client/pkg/utils"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Connection is one mirror client watching a listing.
type Connection struct {
	conn      *websocket.Conn
	id        string
	listingID domain.ID
	log       logger.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewConnection(conn *websocket.Conn, listingID domain.ID, log logger.Logger) *Connection {
	return &Connection{
		conn:      conn,
		id:        utils.GenerateID("conn"),
		listingID: listingID,
		log:       log,
	}
}

func (c *Connection) Send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) ListingID() domain.ID {
	return c.listingID
}
