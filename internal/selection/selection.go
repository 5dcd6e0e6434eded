// Package selection tracks selected record ids across pages and applies
// bulk operations to exactly that set.
package selection

import "sync"

// Selection is an ordered set of record ids. It is safe for concurrent use.
type Selection struct {
	mu    sync.Mutex
	order []string
	ids   map[string]struct{}
}

// New creates an empty selection.
func New() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		s.removeLocked(id)
		return false
	}
	s.addLocked(id)
	return true
}

// SelectAllVisible adds every visible id; ids outside visible are untouched.
func (s *Selection) SelectAllVisible(visible []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range visible {
		if _, ok := s.ids[id]; !ok {
			s.addLocked(id)
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.ids = make(map[string]struct{})
}

// Remove drops ids from the selection.
func (s *Selection) Remove(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			s.removeLocked(id)
		}
	}
}

// Retain drops every id not in keep; used after the record set is
// replaced so the selection never names vanished records.
func (s *Selection) Retain(keep func(id string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	for _, id := range s.order {
		if keep(id) {
			kept = append(kept, id)
			continue
		}
		delete(s.ids, id)
	}
	s.order = kept
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

func (s *Selection) addLocked(id string) {
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) removeLocked(id string) {
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
