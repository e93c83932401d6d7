package dashboard

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/p2p-trader/INV-Tracker-NTFLY/internal/inventory"
)

// Snapshot is the fully derived inventory view served to clients: the
// current page of the filtered and sorted collection plus the state that
// produced it.
type Snapshot struct {
	Items         []*inventory.MaterialSummary `json:"items"`
	Page          int                          `json:"page"`
	TotalPages    int                          `json:"totalPages"`
	TotalItems    int                          `json:"totalItems"`
	Filters       Filters                      `json:"filters"`
	SortColumn    SortColumn                   `json:"sortColumn"`
	SortDirection SortDirection                `json:"sortDirection"`
	LoadedAt      time.Time                    `json:"loadedAt"`
}

// ViewUpdate carries partial changes to the filter and sort state. Nil
// fields leave the current value untouched.
type ViewUpdate struct {
	Search            *string        `json:"search"`
	Movement          *string        `json:"movement"`
	LowStockOnly      *bool          `json:"lowStockOnly"`
	LowStockThreshold *float64       `json:"lowStockThreshold"`
	SortColumn        *SortColumn    `json:"sortColumn"`
	SortDirection     *SortDirection `json:"sortDirection"`
}

// Store is the single reactive state holder: the current summary collection
// plus filter, sort and pagination selections. Every mutation recomputes the
// filtered projection wholesale under the lock; reads serve the precomputed
// result. Summaries are immutable once stored.
type Store struct {
	mu   sync.RWMutex
	log  zerolog.Logger
	coll *collate.Collator

	summaries []*inventory.MaterialSummary
	byID      map[string]*inventory.MaterialSummary
	loadedAt  time.Time

	filters       Filters
	sortColumn    SortColumn
	sortDirection SortDirection
	page          int

	filtered []*inventory.MaterialSummary
}

// NewStore creates an empty store with default view state.
func NewStore(log zerolog.Logger, lowStockThreshold float64) *Store {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	s := &Store{
		log:  log,
		coll: collate.New(language.English),
		byID: map[string]*inventory.MaterialSummary{},
		filters: Filters{
			Movement:          MovementAll,
			LowStockThreshold: lowStockThreshold,
		},
		sortColumn:    SortByDescription,
		sortDirection: SortAsc,
		page:          1,
	}
	s.recompute()
	return s
}

// Replace swaps in a freshly aggregated collection. The previous collection
// is discarded wholesale and the page resets to 1. Overlapping loads are not
// coalesced; the last write wins.
func (s *Store) Replace(summaries []*inventory.MaterialSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = summaries
	s.byID = make(map[string]*inventory.MaterialSummary, len(summaries))
	for _, sum := range summaries {
		s.byID[sum.Material] = sum
	}
	s.loadedAt = time.Now()
	s.page = 1
	s.recompute()

	s.log.Info().Int("materials", len(summaries)).Msg("Inventory collection replaced")
}

// UpdateView applies a partial filter/sort change and returns the new
// snapshot. Changes to search, movement or the low-stock toggle reset the
// page to 1; sort changes keep it.
func (s *Store) UpdateView(u ViewUpdate) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtersChanged := false
	if u.Search != nil && *u.Search != s.filters.Search {
		s.filters.Search = *u.Search
		filtersChanged = true
	}
	if u.Movement != nil && *u.Movement != s.filters.Movement {
		s.filters.Movement = *u.Movement
		filtersChanged = true
	}
	if u.LowStockOnly != nil && *u.LowStockOnly != s.filters.LowStockOnly {
		s.filters.LowStockOnly = *u.LowStockOnly
		filtersChanged = true
	}
	if u.LowStockThreshold != nil && *u.LowStockThreshold != s.filters.LowStockThreshold {
		s.filters.LowStockThreshold = *u.LowStockThreshold
		filtersChanged = true
	}
	if u.SortColumn != nil {
		s.sortColumn = *u.SortColumn
	}
	if u.SortDirection != nil {
		s.sortDirection = *u.SortDirection
	}

	if filtersChanged {
		s.page = 1
	}
	s.recompute()

	return s.snapshotLocked()
}

// GoToPage moves to the requested 1-indexed page. It is a no-op returning
// false unless 1 <= page <= totalPages.
func (s *Store) GoToPage(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.goToPageLocked(page)
}

// NextPage delegates to the GoToPage contract.
func (s *Store) NextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToPageLocked(s.page + 1)
}

// PrevPage delegates to the GoToPage contract.
func (s *Store) PrevPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goToPageLocked(s.page - 1)
}

func (s *Store) goToPageLocked(page int) bool {
	if page < 1 || page > totalPages(len(s.filtered)) {
		return false
	}
	s.page = page
	return true
}

// Snapshot returns the current derived inventory view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Filtered returns the whole filtered and sorted set, not just the current
// page. The export surface serializes this.
func (s *Store) Filtered() []*inventory.MaterialSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*inventory.MaterialSummary, len(s.filtered))
	copy(out, s.filtered)
	return out
}

// Material looks a summary up by id.
func (s *Store) Material(id string) (*inventory.MaterialSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.byID[id]
	return sum, ok
}

// MaterialView builds the merged drill-down view for a material.
func (s *Store) MaterialView(id string, f MaterialFilters) ([]TaggedTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return MaterialView(sum, f), true
}

// RangeView builds the bounded date-range view for a material.
func (s *Store) RangeView(id string, dir Direction, from, to time.Time) (RangeView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.byID[id]
	if !ok {
		return RangeView{}, false
	}
	return NewRangeView(sum, dir, from, to, time.Now()), true
}

// recompute rebuilds the filtered projection. Callers hold the write lock.
func (s *Store) recompute() {
	s.filtered = sortSummaries(applyFilters(s.summaries, s.filters), s.sortColumn, s.sortDirection, s.coll)
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:         paginate(s.filtered, s.page),
		Page:          s.page,
		TotalPages:    totalPages(len(s.filtered)),
		TotalItems:    len(s.filtered),
		Filters:       s.filters,
		SortColumn:    s.sortColumn,
		SortDirection: s.sortDirection,
		LoadedAt:      s.loadedAt,
	}
}
