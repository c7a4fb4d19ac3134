// Package dataset holds the in-memory ledger dataset and the filter and
// aggregation operations the workflow retrieves data through. The active
// dataset is an immutable snapshot behind an atomic pointer: queries read
// lock-free, and a new upload replaces the whole snapshot in one visibility
// change.
package dataset

import (
	"sync/atomic"

	"realestate-agent/internal/common/logger"
	"realestate-agent/internal/common/metrics"
)

// Row is one ledger record. Month is stored as "YYYY-MNN".
type Row struct {
	EntityName        string  `json:"entity_name"`
	PropertyName      string  `json:"property_name"`
	TenantName        string  `json:"tenant_name"`
	LedgerType        string  `json:"ledger_type"`
	LedgerGroup       string  `json:"ledger_group"`
	LedgerCategory    string  `json:"ledger_category"`
	LedgerCode        string  `json:"ledger_code"`
	LedgerDescription string  `json:"ledger_description"`
	Month             string  `json:"month"`
	Quarter           string  `json:"quarter"`
	Year              int     `json:"year"`
	Profit            float64 `json:"profit"`
}

type snapshot struct {
	rows []Row
}

// Store owns the active snapshot.
type Store struct {
	snap   atomic.Pointer[snapshot]
	logger logger.Logger
}

func NewStore(log logger.Logger) *Store {
	s := &Store{logger: log.With(map[string]interface{}{"component": "dataset"})}
	s.snap.Store(&snapshot{})
	return s
}

// Replace swaps in a new snapshot. In-flight queries keep reading the old
// rows; the next query sees the new ones.
func (s *Store) Replace(rows []Row) {
	s.snap.Store(&snapshot{rows: rows})
	metrics.DatasetRows.Set(float64(len(rows)))
	s.logger.Info("dataset replaced", map[string]interface{}{"rows": len(rows)})
}

// Len returns the row count of the active snapshot.
func (s *Store) Len() int {
	return len(s.snap.Load().rows)
}

func (s *Store) rows() []Row {
	return s.snap.Load().rows
}
