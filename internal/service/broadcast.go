package service

// Progress event types pushed to a client's WebSocket connections.
const (
	EventHazardSolved = "hazard_solved"
	EventPlanReady    = "plan_ready"
	EventPlanFailed   = "plan_failed"
)

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastToClient(clientID string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastToClient(string, string, any) {}
