package websocket

import (
	"encoding/json"
	"sync"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"
)

type ConnectionManager struct {
	connections map[domain.ID]map[string]domain.WebSocketConnection // listingID -> connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[domain.ID]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(listingID domain.ID, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[listingID] == nil {
		cm.connections[listingID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[listingID][conn.ID()] = conn

	cm.log.Info("Connection registered", "conn_id", conn.ID(), "listing_id", listingID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(listingID domain.ID, connID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if listingConns, exists := cm.connections[listingID]; exists {
		delete(listingConns, connID)
		if len(listingConns) == 0 {
			delete(cm.connections, listingID)
		}
	}

	cm.log.Info("Connection unregistered", "conn_id", connID, "listing_id", listingID)
	return nil
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(listingID domain.ID) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if listingConns, exists := cm.connections[listingID]; exists {
		for connID, conn := range listingConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("Failed to close connection", "conn_id", connID,
					"listing_id", listingID, "error", err)
			}
		}
		delete(cm.connections, listingID)
	}

	cm.log.Info("Connections closed for listing", "listing_id", listingID)
	return nil
}

func (cm *ConnectionManager) GetConnectionsForListing(listingID domain.ID) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[listingID] {
		connections = append(connections, conn)
	}
	return connections
}

// BroadcastToListing sends message to every watcher of the listing. A failed
// send drops that connection and moves on to the rest.
func (cm *ConnectionManager) BroadcastToListing(listingID domain.ID, message interface{}) error {
	connections := cm.GetConnectionsForListing(listingID)
	if len(connections) == 0 {
		return nil
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(messageBytes); err != nil {
			cm.log.Warn("Failed to send message, dropping connection",
				"conn_id", conn.ID(), "listing_id", listingID, "error", err)
			_ = conn.Close()
			_ = cm.UnregisterConnection(listingID, conn.ID())
		}
	}

	cm.log.Debug("Broadcast to listing", "listing_id", listingID, "connections", len(connections))
	return nil
}
