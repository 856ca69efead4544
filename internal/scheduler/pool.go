// Package scheduler builds session pools and picks the next problem to present.
package scheduler

import (
	"errors"

	"github.com/verte-zerg/kioku/internal/model"
)

// ErrEmptyPool is returned when no problem satisfies the session filter.
var ErrEmptyPool = errors.New("no problems match the session filter")

// Pool is the fixed set of eligible problem ids for one session.
type Pool struct {
	ids []string
	set map[string]struct{}
}

// NewPool builds a pool from ids, dropping duplicates and keeping order.
func NewPool(ids []string) Pool {
	p := Pool{ids: make([]string, 0, len(ids)), set: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if _, ok := p.set[id]; ok {
			continue
		}
		p.set[id] = struct{}{}
		p.ids = append(p.ids, id)
	}
	return p
}

// Contains reports pool membership.
func (p Pool) Contains(id string) bool {
	_, ok := p.set[id]
	return ok
}

// IDs returns the pool members in build order.
func (p Pool) IDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// Len returns the pool size.
func (p Pool) Len() int {
	return len(p.ids)
}

// Eligible reports whether a single problem passes the filter.
func Eligible(p model.Problem, f model.Filter) bool {
	if p.Deleted {
		return false
	}
	if len(f.Categories) > 0 && !p.HasCategory(f.Categories) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, p.Type) {
		return false
	}
	if f.MaxScore != nil && p.Score > *f.MaxScore {
		return false
	}
	return true
}

func containsType(types []model.ProblemType, t model.ProblemType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// BuildPool returns the ids of every problem that passes the filter.
// It does not modify its inputs.
func BuildPool(problems []model.Problem, f model.Filter) (Pool, error) {
	ids := make([]string, 0, len(problems))
	for _, p := range problems {
		if Eligible(p, f) {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return Pool{}, ErrEmptyPool
	}
	return NewPool(ids), nil
}
