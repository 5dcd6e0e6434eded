package catalog

import "sync"

// Set is the in-memory record set held by a session. Refreshes and
// subscription pushes replace it wholesale; edits and bulk operations
// mutate it in place, possibly ahead of the remote store.
type Set struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]int
}

// NewSet creates a set holding a copy of records.
func NewSet(records []Record) *Set {
	s := &Set{}
	s.Replace(records)
	return s
}

// Replace swaps the whole content for records.
func (s *Set) Replace(records []Record) {
	cp := make([]Record, len(records))
	copy(cp, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = cp
	s.reindex()
}

func (s *Set) reindex() {
	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		if r.ID != "" {
			s.index[r.ID] = i
		}
	}
}

// Snapshot returns a copy of all records in set order.
func (s *Set) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns a deep copy of the record with id.
func (s *Set) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	return s.records[i].Clone(), true
}

// Upsert replaces the record with the same ID or appends it.
func (s *Set) Upsert(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[r.ID]; ok && r.ID != "" {
		s.records[i] = r
		return
	}
	s.records = append(s.records, r)
	if r.ID != "" {
		s.index[r.ID] = len(s.records) - 1
	}
}

// Remove drops every record whose ID is in ids and returns how many were removed.
func (s *Set) Remove(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if _, ok := drop[r.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	s.reindex()
	return removed
}

// Pick returns the records whose ID is in ids, in set order.
func (s *Set) Pick(ids []string) []Record {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if _, ok := want[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// SKUs returns the SKUKey of every record currently held.
func (s *Set) SKUs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.records))
	for _, r := range s.records {
		out[SKUKey(r.SKU)] = struct{}{}
	}
	return out
}

// SKUOwner returns the id of the record holding sku, compared by SKUKey.
func (s *Set) SKUOwner(sku string) (string, bool) {
	key := SKUKey(sku)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if SKUKey(r.SKU) == key {
			return r.ID, true
		}
	}
	return "", false
}
