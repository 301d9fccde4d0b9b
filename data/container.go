// Package data provides thread-safe storage for the loaded procedure
// catalogue. The CatalogContainer uses atomic pointers so a scheduled
// refresh can swap the whole catalogue without blocking request handlers.
package data

import (
	"sync/atomic"
	"time"

	"github.com/gingerhealthcare/profilegen/catalog"
	"github.com/gingerhealthcare/profilegen/interfaces"
	"github.com/gingerhealthcare/profilegen/logging"
)

// Compile-time check to ensure CatalogContainer implements CatalogStore
var _ interfaces.CatalogStore = (*CatalogContainer)(nil)

// CatalogContainer holds the procedure catalogue with atomic pointers for
// zero-downtime refreshes
type CatalogContainer struct {
	procedures      atomic.Value // []catalog.ProcedureEntry
	specialtyIndex  atomic.Value // map[string][]catalog.ProcedureEntry
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewCatalogContainer creates a new CatalogContainer with empty data
func NewCatalogContainer() *CatalogContainer {
	cc := &CatalogContainer{}
	cc.procedures.Store(make([]catalog.ProcedureEntry, 0))
	cc.specialtyIndex.Store(make(map[string][]catalog.ProcedureEntry))
	cc.lastUpdated.Store(time.Time{})
	cc.serverStartTime.Store(time.Time{})
	return cc
}

// Thread-safe getters with type check

// GetProcedures returns the loaded procedure entries in source order
func (cc *CatalogContainer) GetProcedures() []catalog.ProcedureEntry {
	if v := cc.procedures.Load(); v != nil {
		if procedures, ok := v.([]catalog.ProcedureEntry); ok {
			return procedures
		}
	}

	logging.Warn("Procedure list is empty or invalid")
	return []catalog.ProcedureEntry{}
}

// GetSpecialtyIndex returns the by-specialty index for O(1) lookups
func (cc *CatalogContainer) GetSpecialtyIndex() map[string][]catalog.ProcedureEntry {
	if v := cc.specialtyIndex.Load(); v != nil {
		if index, ok := v.(map[string][]catalog.ProcedureEntry); ok {
			return index
		}
	}

	logging.Warn("Specialty index is empty or invalid")
	return make(map[string][]catalog.ProcedureEntry)
}

// GetLastUpdated returns the timestamp of the last catalogue refresh
func (cc *CatalogContainer) GetLastUpdated() time.Time {
	if v := cc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalogue refresh is currently in progress
func (cc *CatalogContainer) IsUpdating() bool {
	return cc.updating.Load()
}

// SetServerStartTime sets the server start time
func (cc *CatalogContainer) SetServerStartTime(startTime time.Time) {
	cc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (cc *CatalogContainer) GetServerStartTime() time.Time {
	if v := cc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateCatalog atomically swaps in a freshly loaded catalogue
func (cc *CatalogContainer) UpdateCatalog(entries []catalog.ProcedureEntry, index map[string][]catalog.ProcedureEntry) {
	// Atomic swap (zero downtime replacement)
	cc.procedures.Store(entries)
	cc.specialtyIndex.Store(index)
	cc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a catalogue refresh.
// Returns true if the refresh can proceed, false if another one is in progress
func (cc *CatalogContainer) BeginUpdate() bool {
	return cc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalogue refresh
func (cc *CatalogContainer) EndUpdate() {
	cc.updating.Store(false)
}
