// Package entity names the server entities a wizard persists and keeps the
// ids the server assigned to them.
package entity

import (
	"sort"
	"sync"
)

// Kind is one single valued server entity, e.g. "profile" or "unit".
type Kind string

// IDs holds at most one id per entity kind. An update for a kind is only
// issued once its id is known here.
type IDs map[Kind]int64

func (ids IDs) Get(k Kind) (int64, bool) {
	id, ok := ids[k]
	return id, ok && id > 0
}

func (ids IDs) Clone() IDs {
	out := make(IDs, len(ids))
	for k, v := range ids {
		out[k] = v
	}
	return out
}

// Merge copies every known id of other into ids.
func (ids IDs) Merge(other IDs) {
	for k, v := range other {
		if v > 0 {
			ids[k] = v
		}
	}
}

func (ids IDs) Kinds() []Kind {
	kinds := make([]Kind, 0, len(ids))
	for k := range ids {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Ledger is the concurrency safe id store of one wizard instance. Row ids
// are tracked by the client row key so a repeated save of a new row takes
// the update path.
type Ledger struct {
	mu   sync.RWMutex
	ids  IDs
	rows map[string]int64
}

func NewLedger(seed IDs) *Ledger {
	l := &Ledger{ids: IDs{}, rows: map[string]int64{}}
	l.ids.Merge(seed)
	return l
}

func (l *Ledger) Get(k Kind) (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids.Get(k)
}

func (l *Ledger) Set(k Kind, id int64) {
	if id <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[k] = id
}

func (l *Ledger) Snapshot() IDs {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids.Clone()
}

func (l *Ledger) Merge(ids IDs) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids.Merge(ids)
}

func (l *Ledger) Row(rowKey string) (int64, bool) {
	if rowKey == "" {
		return 0, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.rows[rowKey]
	return id, ok
}

func (l *Ledger) SetRow(rowKey string, id int64) {
	if rowKey == "" || id <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[rowKey] = id
}

// Reset forgets everything, used when the wizard switches record identity.
func (l *Ledger) Reset(seed IDs) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = IDs{}
	l.ids.Merge(seed)
	l.rows = map[string]int64{}
}
