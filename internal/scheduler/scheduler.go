package scheduler

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

const (
	// RecentWindow is how many recently presented ids are kept out of sampling.
	RecentWindow = 5
	// ForcedDelay is how many Next calls a failed problem waits before it is forced back.
	ForcedDelay = 5
)

// ErrNoSession is returned by Next when no session has been started.
var ErrNoSession = errors.New("no active session")

// Catalog reports the live score of a problem. ok is false for deleted or
// unknown problems, which are never presented.
type Catalog interface {
	Score(id string) (score float64, ok bool)
}

// Scheduler picks the next problem of a session.
type Scheduler struct {
	rnd     *rand.Rand
	catalog Catalog
	state   *model.SchedulerState
	pool    Pool
	active  bool
}

// New returns a Scheduler over state. A zero seed seeds from the current time.
func New(catalog Catalog, state *model.SchedulerState, seed int64) *Scheduler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewWithRand(catalog, state, rand.New(rand.NewSource(seed)))
}

// NewWithRand returns a Scheduler drawing from rnd.
func NewWithRand(catalog Catalog, state *model.SchedulerState, rnd *rand.Rand) *Scheduler {
	if state == nil {
		state = &model.SchedulerState{}
	}
	return &Scheduler{rnd: rnd, catalog: catalog, state: state}
}

// Weight is the sampling weight of a problem with the given score.
func Weight(score float64) float64 {
	return 1 / (1 + math.Max(0, score))
}

// Start begins a session over pool and clears both queues.
func (s *Scheduler) Start(pool Pool) {
	s.pool = pool
	s.active = true
	s.state.Reset()
}

// End finishes the session and clears both queues.
func (s *Scheduler) End() {
	s.pool = Pool{}
	s.active = false
	s.state.Reset()
}

// Active reports whether a session is running.
func (s *Scheduler) Active() bool {
	return s.active
}

// Pool returns the current session pool.
func (s *Scheduler) Pool() Pool {
	return s.pool
}

// State returns the queue state backing this scheduler.
func (s *Scheduler) State() *model.SchedulerState {
	return s.state
}

// EnqueueRetry schedules id to be forced back after ForcedDelay calls to Next.
func (s *Scheduler) EnqueueRetry(id string) {
	s.state.ForcedQueue = append(s.state.ForcedQueue, model.ForcedEntry{ID: id, Delay: ForcedDelay})
}

// Next returns the id of the problem to present.
//
// Every call first ages the forced queue. The first entry whose delay has run
// out is removed and returned if it is still presentable; a stale entry is
// dropped and sampling proceeds without looking for another ready entry.
// Otherwise an id is drawn by score weight, skipping recently shown ids
// unless that would leave nothing to draw from.
func (s *Scheduler) Next() (string, error) {
	if !s.active {
		return "", ErrNoSession
	}
	if s.pool.Len() == 0 {
		return "", ErrEmptyPool
	}

	for i := range s.state.ForcedQueue {
		s.state.ForcedQueue[i].Delay--
	}
	if idx := s.firstReady(); idx >= 0 {
		entry := s.state.ForcedQueue[idx]
		s.state.ForcedQueue = append(s.state.ForcedQueue[:idx:idx], s.state.ForcedQueue[idx+1:]...)
		if s.presentable(entry.ID) {
			s.remember(entry.ID)
			return entry.ID, nil
		}
	}

	candidates := s.candidates()
	if len(candidates) == 0 {
		return "", ErrEmptyPool
	}
	id := s.draw(candidates)
	s.remember(id)
	return id, nil
}

func (s *Scheduler) firstReady() int {
	for i, entry := range s.state.ForcedQueue {
		if entry.Delay <= 0 {
			return i
		}
	}
	return -1
}

func (s *Scheduler) presentable(id string) bool {
	if !s.pool.Contains(id) {
		return false
	}
	_, ok := s.catalog.Score(id)
	return ok
}

type candidate struct {
	id     string
	weight float64
}

func (s *Scheduler) candidates() []candidate {
	recent := make(map[string]struct{}, len(s.state.RecentQueue))
	for _, id := range s.state.RecentQueue {
		recent[id] = struct{}{}
	}
	var fresh, all []candidate
	for _, id := range s.pool.ids {
		score, ok := s.catalog.Score(id)
		if !ok {
			continue
		}
		c := candidate{id: id, weight: Weight(score)}
		all = append(all, c)
		if _, seen := recent[id]; !seen {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) > 0 {
		return fresh
	}
	return all
}

func (s *Scheduler) draw(candidates []candidate) string {
	total := 0.0
	for _, c := range candidates {
		total += c.weight
	}
	r := s.rnd.Float64() * total
	for _, c := range candidates {
		r -= c.weight
		if r <= 0 {
			return c.id
		}
	}
	return candidates[0].id
}

func (s *Scheduler) remember(id string) {
	s.state.RecentQueue = append(s.state.RecentQueue, id)
	if n := len(s.state.RecentQueue); n > RecentWindow {
		s.state.RecentQueue = append([]string(nil), s.state.RecentQueue[n-RecentWindow:]...)
	}
}
