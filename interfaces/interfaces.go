// Package interfaces defines core abstractions for the profile generator
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"time"

	"github.com/gingerhealthcare/profilegen/catalog"
)

// CatalogStore defines the contract for procedure catalogue storage.
// It provides thread-safe access to the loaded entries with atomic
// operations for zero-downtime refreshes. Entries are immutable after a
// swap; nothing may mutate a slice obtained from the store.
type CatalogStore interface {
	// Data retrieval methods
	GetProcedures() []catalog.ProcedureEntry
	GetSpecialtyIndex() map[string][]catalog.ProcedureEntry
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Data update methods
	UpdateCatalog(entries []catalog.ProcedureEntry, index map[string][]catalog.ProcedureEntry)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader defines the contract for reading the procedure catalogue
// from its external tabular source.
type CatalogLoader interface {
	Load() ([]catalog.ProcedureEntry, *catalog.LoadReport, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages the catalogue refresh cycle.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled catalogue refresh time
	CalculateNextUpdate() time.Time
}
