package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/gingerhealthcare/profilegen/catalog"
	"github.com/gingerhealthcare/profilegen/data"
)

// stubLoader returns canned entries or a canned error, counting calls.
type stubLoader struct {
	entries []catalog.ProcedureEntry
	err     error
	calls   int
}

func (s *stubLoader) Load() ([]catalog.ProcedureEntry, *catalog.LoadReport, error) {
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.entries, &catalog.LoadReport{TotalRows: len(s.entries)}, nil
}

func TestRefreshCatalogSwapsData(t *testing.T) {
	store := data.NewCatalogContainer()
	loader := &stubLoader{entries: []catalog.ProcedureEntry{
		{Name: "Coronary Angioplasty", Specialty: "Cardiology"},
		{Name: "Knee Replacement", Specialty: "Orthopedics"},
	}}

	s := NewScheduler(store, loader)
	if err := s.refreshCatalog(); err != nil {
		t.Fatalf("refreshCatalog failed: %v", err)
	}

	if len(store.GetProcedures()) != 2 {
		t.Errorf("expected 2 procedures in store, got %d", len(store.GetProcedures()))
	}
	if len(store.GetSpecialtyIndex()["cardiology"]) != 1 {
		t.Error("specialty index should be rebuilt on refresh")
	}
	if store.GetLastUpdated().IsZero() {
		t.Error("lastUpdated should be set after a refresh")
	}
	if store.IsUpdating() {
		t.Error("updating flag should be cleared after a refresh")
	}
}

func TestRefreshCatalogInitialFailureIsFatal(t *testing.T) {
	store := data.NewCatalogContainer()
	loader := &stubLoader{err: fmt.Errorf("source unreachable")}

	s := NewScheduler(store, loader)
	if err := s.refreshCatalog(); err == nil {
		t.Fatal("a failed load with no existing data should return an error")
	}
}

func TestRefreshCatalogKeepsPreviousDataOnFailure(t *testing.T) {
	store := data.NewCatalogContainer()
	loader := &stubLoader{entries: []catalog.ProcedureEntry{
		{Name: "Coronary Angioplasty", Specialty: "Cardiology"},
	}}

	s := NewScheduler(store, loader)
	if err := s.refreshCatalog(); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}

	loader.err = fmt.Errorf("source unreachable")
	if err := s.refreshCatalog(); err != nil {
		t.Fatalf("refresh failure with existing data should not error: %v", err)
	}

	if len(store.GetProcedures()) != 1 {
		t.Error("previous catalogue should survive a failed refresh")
	}
}

func TestRefreshCatalogSkipsWhenUpdateInProgress(t *testing.T) {
	store := data.NewCatalogContainer()
	loader := &stubLoader{entries: []catalog.ProcedureEntry{{Name: "X", Specialty: "Y"}}}

	if !store.BeginUpdate() {
		t.Fatal("BeginUpdate failed")
	}
	defer store.EndUpdate()

	s := NewScheduler(store, loader)
	if err := s.refreshCatalog(); err != nil {
		t.Fatalf("concurrent refresh should be a no-op, got: %v", err)
	}
	if loader.calls != 0 {
		t.Error("loader should not be called while another update is running")
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	next := CalculateNextUpdate()

	if !next.After(time.Now()) {
		t.Error("next update should be in the future")
	}
	if next.Hour() != 6 || next.Minute() != 0 {
		t.Errorf("next update should be at 06:00, got %02d:%02d", next.Hour(), next.Minute())
	}
}
