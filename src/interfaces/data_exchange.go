package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for sharing snapshots with external
// listeners (HTTP/WebSocket push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a payload to every connected listener.
	Broadcast(payload interface{})

	// -----------------------------------------------------------------------------
	// UpdateLatest replaces the cached payload served to newly connected
	// listeners, without broadcasting.
	UpdateLatest(payload interface{})

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
