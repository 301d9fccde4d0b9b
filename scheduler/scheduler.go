// Package scheduler provides the scheduled procedure-catalogue refresh and
// staleness monitoring for the profile generator. It coordinates catalogue
// loads with the catalog store using dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/gingerhealthcare/profilegen/catalog"
	"github.com/gingerhealthcare/profilegen/interfaces"
	"github.com/gingerhealthcare/profilegen/logging"
	"github.com/gingerhealthcare/profilegen/metrics"
	"github.com/gingerhealthcare/profilegen/validation"
)

// Compile-time check to ensure Scheduler implements the Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalogue refreshes and staleness monitoring using
// dependency injection
type Scheduler struct {
	store     interfaces.CatalogStore
	loader    interfaces.CatalogLoader
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(store interfaces.CatalogStore, loader interfaces.CatalogLoader) *Scheduler {
	return &Scheduler{
		store:     store,
		loader:    loader,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial catalogue load and schedules the daily refresh
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.refreshCatalog(); err != nil {
		logging.Error("Failed to perform initial catalogue load", "error", err)
		return fmt.Errorf("initial catalogue load failed: %w", err)
	}

	// Refresh once a day at 06:00; the source sheet changes rarely
	_, err := s.scheduler.Every(1).Days().At("06:00").Do(func() {
		if err := s.refreshCatalog(); err != nil {
			logging.Error("Failed to refresh catalogue", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule catalogue refresh", "error", err)
		return fmt.Errorf("failed to schedule catalogue refresh: %w", err)
	}

	s.scheduler.StartAsync()

	// Start staleness monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// refreshCatalog performs a complete catalogue reload using the injected
// loader and swaps the result into the store
func (s *Scheduler) refreshCatalog() error {
	// Prevent concurrent refreshes
	if !s.store.BeginUpdate() {
		logging.Info("Catalogue refresh already in progress, skipping...")
		return nil
	}
	defer s.store.EndUpdate()

	logging.Info("Starting catalogue refresh", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	entries, loadReport, err := s.loader.Load()
	if err != nil {
		// Keep serving the previous catalogue when a refresh fails; only a
		// failed initial load (no data at all) is fatal to the caller.
		if len(s.store.GetProcedures()) > 0 {
			logging.Warn("Catalogue refresh failed, keeping previous data", "error", err)
			return nil
		}
		return fmt.Errorf("failed to load catalogue: %w", err)
	}

	validator := validation.NewDataValidator()
	report := validator.ReportCatalogQuality(entries, loadReport)

	if len(report.DuplicateNames) > 0 {
		logging.Warn("Duplicate procedure names detected",
			"total", len(report.DuplicateNames),
			"names", report.DuplicateNames,
		)
	}

	if report.MissingSpecialty > 0 {
		logging.Warn("Procedures without a specialty",
			"count", report.MissingSpecialty,
		)
	}

	if report.EmptyNameRows > 0 {
		logging.Warn("Rows skipped during catalogue load",
			"count", report.EmptyNameRows,
		)
	}

	// Atomic swap into the injected store
	s.store.UpdateCatalog(entries, catalog.SpecialtyIndex(entries))
	metrics.CatalogEntries.Set(float64(len(entries)))

	elapsed := time.Since(start)
	logging.Info("Catalogue refresh completed",
		"duration", elapsed.String(),
		"entry_count", len(entries),
		"specialty_count", report.SpecialtyCount)

	return nil
}

// startHealthMonitoring monitors the age of the loaded catalogue
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			lastUpdate := s.store.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Catalogue hasn't been refreshed in over 25 hours")
			}
		}
	}()
}

// CalculateNextUpdate returns the next scheduled refresh time
func CalculateNextUpdate() time.Time {
	now := time.Now()

	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	if now.Before(sixAM) {
		return sixAM
	}
	return sixAM.AddDate(0, 0, 1)
}
