package handler

// BroadcastGameEvent implements service.Broadcaster using the WebSocket hub.
// Engine events pass through with their own type; subscribers see the same
// stream the durable event log records.
func (h *Hub) BroadcastGameEvent(gameID string, eventType string, data any) {
	h.BroadcastToGame(gameID, WSEvent{
		Type:   eventType,
		GameID: gameID,
		Data:   data,
	})
}
