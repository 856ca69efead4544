package problem

import (
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

// MaxListItems caps how many rows List returns.
const MaxListItems = 200

// Store is the in-memory problem collection. Insertion order is preserved.
type Store struct {
	items []*model.Problem
	byID  map[string]*model.Problem
}

// NewStore builds a store from persisted problems, normalizing each one.
// Later duplicates of an id replace earlier ones in place.
func NewStore(problems []model.Problem) *Store {
	s := &Store{byID: make(map[string]*model.Problem, len(problems))}
	for i := range problems {
		p := problems[i]
		if p.ID == "" {
			continue
		}
		Normalize(&p)
		if existing, ok := s.byID[p.ID]; ok {
			*existing = p
			continue
		}
		s.insert(p)
	}
	return s
}

func (s *Store) insert(p model.Problem) *model.Problem {
	ptr := &p
	s.items = append(s.items, ptr)
	s.byID[p.ID] = ptr
	return ptr
}

// Len returns the number of stored problems, deleted ones included.
func (s *Store) Len() int {
	return len(s.items)
}

// Add inserts a new problem.
func (s *Store) Add(p model.Problem) error {
	if p.ID == "" {
		return fmt.Errorf("problem id is empty")
	}
	if _, ok := s.byID[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	Normalize(&p)
	s.insert(p)
	return nil
}

// Get returns the live record for id. Callers mutate it in place.
func (s *Store) Get(id string) (*model.Problem, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Score implements the scheduler catalog: deleted or unknown problems report false.
func (s *Store) Score(id string) (float64, bool) {
	p, ok := s.byID[id]
	if !ok || p.Deleted {
		return 0, false
	}
	return p.Score, true
}

// All returns every problem in insertion order.
func (s *Store) All() []*model.Problem {
	out := make([]*model.Problem, len(s.items))
	copy(out, s.items)
	return out
}

// Snapshot returns copies of every problem for persistence or export.
func (s *Store) Snapshot() []model.Problem {
	out := make([]model.Problem, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, *p)
	}
	return out
}

// Active returns non-deleted problems in insertion order.
func (s *Store) Active() []*model.Problem {
	out := make([]*model.Problem, 0, len(s.items))
	for _, p := range s.items {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	return out
}

// List returns non-deleted problems matching any of categories (empty = all)
// and the given type (empty = all), capped at MaxListItems. The second
// result is the uncapped match count.
func (s *Store) List(categories []string, t model.ProblemType) ([]*model.Problem, int) {
	var matched []*model.Problem
	for _, p := range s.items {
		if p.Deleted {
			continue
		}
		if t != "" && p.Type != t {
			continue
		}
		if len(categories) > 0 && !p.HasCategory(categories) {
			continue
		}
		matched = append(matched, p)
	}
	total := len(matched)
	if total > MaxListItems {
		matched = matched[:MaxListItems]
	}
	return matched, total
}

// Categories returns the sorted union of labels on non-deleted problems.
func (s *Store) Categories() []string {
	set := map[string]struct{}{}
	for _, p := range s.items {
		if p.Deleted {
			continue
		}
		for _, c := range p.Categories {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Edit replaces content and categories of an existing problem.
func (s *Store) Edit(id string, c model.Content, categories []string, now time.Time) error {
	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	edited := *p
	if err := ApplyContent(&edited, c, categories, now); err != nil {
		return err
	}
	*p = edited
	return nil
}

// SetDeleted flips the soft-delete flag.
func (s *Store) SetDeleted(id string, deleted bool, now time.Time) error {
	p, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.Deleted = deleted
	p.UpdatedAt = now.UnixMilli()
	return nil
}

// Merge applies imported problems. For an existing id the local score and
// counters are kept, categories are unioned and updatedAt is refreshed; the
// incoming content replaces the local content unless the types differ.
// Returns added and updated counts.
func (s *Store) Merge(incoming []model.Problem, now time.Time) (added, updated int) {
	for _, np := range incoming {
		if np.ID == "" {
			continue
		}
		Normalize(&np)
		old, ok := s.byID[np.ID]
		if !ok {
			s.insert(np)
			added++
			continue
		}
		labels := UnionCategories(old.Categories, np.Categories)
		if np.Type != old.Type {
			// type is immutable; only the labels carry over
			np = *old
		}
		np.Score = old.Score
		np.AnswerCount = old.AnswerCount
		np.CorrectCount = old.CorrectCount
		np.Categories = labels
		np.UpdatedAt = now.UnixMilli()
		*old = np
		updated++
	}
	return added, updated
}
