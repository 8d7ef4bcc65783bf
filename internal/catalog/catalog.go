// Package catalog holds the read-only snapshot of clients, branches and
// medications that the sale screens use to populate choices and resolve
// ids. The snapshot is loaded as a unit and replaced wholesale; it is
// never patched in place.
package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"medsys/m/domain"
)

// Fetcher is the slice of the MedSys API the catalog depends on.
type Fetcher interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
	ListMedications(ctx context.Context) ([]domain.Medication, error)
}

// LoadError reports a failed catalog load. A failure of any one of the
// three fetches fails the load as a whole; there is no partial-catalog
// operation mode.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "unable to load catalog: " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// Snapshot is an immutable view of the three collections. Lookups miss
// cleanly on unknown ids.
type Snapshot struct {
	Clients     []domain.Client
	Branches    []domain.Branch
	Medications []domain.Medication

	clientByID     map[int64]domain.Client
	branchByID     map[int64]domain.Branch
	medicationByID map[int64]domain.Medication
}

func newSnapshot(clients []domain.Client, branches []domain.Branch, medications []domain.Medication) *Snapshot {
	s := &Snapshot{
		Clients:        clients,
		Branches:       branches,
		Medications:    medications,
		clientByID:     make(map[int64]domain.Client, len(clients)),
		branchByID:     make(map[int64]domain.Branch, len(branches)),
		medicationByID: make(map[int64]domain.Medication, len(medications)),
	}
	for _, c := range clients {
		s.clientByID[c.ID] = c
	}
	for _, b := range branches {
		s.branchByID[b.ID] = b
	}
	for _, m := range medications {
		s.medicationByID[m.ID] = m
	}
	return s
}

func (s *Snapshot) ClientByID(id int64) (domain.Client, bool) {
	c, ok := s.clientByID[id]
	return c, ok
}

func (s *Snapshot) BranchByID(id int64) (domain.Branch, bool) {
	b, ok := s.branchByID[id]
	return b, ok
}

func (s *Snapshot) MedicationByID(id int64) (domain.Medication, bool) {
	m, ok := s.medicationByID[id]
	return m, ok
}

// Cache owns the current snapshot. Screens load it fresh on entry and
// share the result read-only; the mutex guards only the pointer swap.
type Cache struct {
	api Fetcher

	mu   sync.RWMutex
	snap *Snapshot
}

func NewCache(api Fetcher) *Cache {
	return &Cache{api: api}
}

// Load fetches the three collections concurrently, joins them, and
// replaces the held snapshot. On failure the previous snapshot (if any)
// is left as it was and a LoadError is returned.
func (c *Cache) Load(ctx context.Context) (*Snapshot, error) {
	var (
		clients     []domain.Client
		branches    []domain.Branch
		medications []domain.Medication
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = c.api.ListClients(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		branches, err = c.api.ListBranches(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		medications, err = c.api.ListMedications(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, &LoadError{Err: err}
	}

	snap := newSnapshot(clients, branches, medications)
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return snap, nil
}

// Snapshot returns the currently held snapshot, if one is loaded.
func (c *Cache) Snapshot() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.snap != nil
}

// Invalidate drops the held snapshot so the next screen entry reloads.
// Called after a mutation elsewhere makes the catalog stale.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
