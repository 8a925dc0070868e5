package interfaces

import "market-confluence/src/models"

// -----------------------------------------------------------------------------
// IEventStore defines the contract for the confluence event journal.
// -----------------------------------------------------------------------------

type IEventStore interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the connection and creates the schema if missing.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveEvents appends a batch of events in one transaction.
	SaveEvents(events []models.MConfluenceEvent) error

	// -----------------------------------------------------------------------------

	// RecentEvents returns up to limit events, newest first. An empty kind
	// matches every kind.
	RecentEvents(limit int, kind models.EventKind) ([]models.MConfluenceEvent, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes events older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
