// Package engine ties problems, scheduling, grading and statistics to a
// persistence adapter.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verte-zerg/kioku/internal/grading"
	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/problem"
	"github.com/verte-zerg/kioku/internal/scheduler"
	"github.com/verte-zerg/kioku/internal/stats"
	"github.com/verte-zerg/kioku/internal/store"
)

// Options configures an Engine.
type Options struct {
	// Seed for the scheduler; zero seeds from the clock.
	Seed int64
	// Now overrides the wall clock.
	Now func() time.Time
	// Warnf receives recoverable load problems.
	Warnf func(format string, args ...any)
}

type appState struct {
	model.SchedulerState
	LastSavedCats []string `json:"lastSavedCats"`
}

// Engine is the single-user session context.
type Engine struct {
	kv       store.KV
	problems *problem.Store
	ledger   *stats.Ledger
	app      *appState
	sched    *scheduler.Scheduler
	grader   *grading.Engine
	now      func() time.Time
}

// Open loads persisted state from kv. Missing or malformed values fall back
// to empty defaults; only adapter failures are returned.
func Open(ctx context.Context, kv store.KV, opts Options) (*Engine, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	warnf := opts.Warnf
	if warnf == nil {
		warnf = func(string, ...any) {}
	}

	problems, err := loadProblems(ctx, kv, warnf)
	if err != nil {
		return nil, err
	}
	app := &appState{}
	if err := loadJSON(ctx, kv, store.KeyAppState, app, warnf); err != nil {
		return nil, err
	}
	app.LastSavedCats = problem.NormalizeCategories(app.LastSavedCats)
	var daily, categories map[string]model.Counter
	if err := loadJSON(ctx, kv, store.KeyDailyStats, &daily, warnf); err != nil {
		return nil, err
	}
	if err := loadJSON(ctx, kv, store.KeyCategoryStats, &categories, warnf); err != nil {
		return nil, err
	}

	e := &Engine{
		kv:       kv,
		problems: problem.NewStore(problems),
		ledger:   stats.NewLedger(nil, nil),
		app:      app,
		now:      now,
	}
	e.ledger.Merge(daily, categories)
	e.sched = scheduler.New(e.problems, &app.SchedulerState, opts.Seed)
	e.grader = grading.NewWithClock(e.ledger, e.sched, now)
	return e, nil
}

// loadJSON decodes key into dst. A decode failure resets dst to its zero
// value and is reported through warnf.
func loadJSON[T any](ctx context.Context, kv store.KV, key string, dst *T, warnf func(string, ...any)) error {
	raw, ok, err := kv.Load(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		var zero T
		*dst = zero
		warnf("ignoring malformed %s: %v", key, err)
	}
	return nil
}

// loadProblems decodes the stored collection record by record so a damaged
// record costs only itself.
func loadProblems(ctx context.Context, kv store.KV, warnf func(string, ...any)) ([]model.Problem, error) {
	raw, ok, err := kv.Load(ctx, store.KeyProblems)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	problems, skipped, err := problem.DecodeList(raw)
	if err != nil {
		warnf("ignoring malformed %s: %v", store.KeyProblems, err)
		return nil, nil
	}
	for _, serr := range skipped {
		warnf("skipping entry of %s: %v", store.KeyProblems, serr)
	}
	return problems, nil
}

func (e *Engine) save(ctx context.Context, keys ...string) error {
	entries := make(map[string][]byte, len(keys))
	for _, key := range keys {
		var v any
		switch key {
		case store.KeyProblems:
			v = e.problems.Snapshot()
		case store.KeyAppState:
			v = e.app
		case store.KeyDailyStats:
			v = e.ledger.Daily
		case store.KeyCategoryStats:
			v = e.ledger.Categories
		default:
			return fmt.Errorf("unknown state key %q", key)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		entries[key] = raw
	}
	if err := e.kv.SaveAll(ctx, entries); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (e *Engine) saveAll(ctx context.Context) error {
	return e.save(ctx, store.KeyProblems, store.KeyAppState, store.KeyDailyStats, store.KeyCategoryStats)
}

// StartSession builds the pool for f and starts a new session. On
// scheduler.ErrEmptyPool nothing changes. Returns the pool size.
func (e *Engine) StartSession(ctx context.Context, f model.Filter) (int, error) {
	pool, err := scheduler.BuildPool(e.problems.Snapshot(), f)
	if err != nil {
		return 0, err
	}
	e.sched.Start(pool)
	return pool.Len(), e.save(ctx, store.KeyAppState)
}

// EndSession stops the running session.
func (e *Engine) EndSession(ctx context.Context) error {
	e.sched.End()
	return e.save(ctx, store.KeyAppState)
}

// InSession reports whether a session is running.
func (e *Engine) InSession() bool {
	return e.sched.Active()
}

// Next selects the next problem of the running session.
func (e *Engine) Next(ctx context.Context) (model.Problem, error) {
	id, err := e.sched.Next()
	if err != nil {
		return model.Problem{}, err
	}
	p, ok := e.problems.Get(id)
	if !ok {
		return model.Problem{}, fmt.Errorf("%w: %s", problem.ErrNotFound, id)
	}
	if err := e.save(ctx, store.KeyAppState); err != nil {
		return model.Problem{}, err
	}
	return *p, nil
}

// Grade applies a manual mark to a mask or qa problem.
func (e *Engine) Grade(ctx context.Context, id string, mark model.Mark) (model.Problem, error) {
	p, err := e.live(id)
	if err != nil {
		return model.Problem{}, err
	}
	restore := e.checkpoint(p)
	if err := e.grader.Apply(p, mark); err != nil {
		return model.Problem{}, err
	}
	if err := e.saveAll(ctx); err != nil {
		restore()
		return model.Problem{}, err
	}
	return *p, nil
}

// AnswerOX grades an ox problem from the chosen side.
func (e *Engine) AnswerOX(ctx context.Context, id string, side model.Side) (grading.OXResult, error) {
	p, err := e.live(id)
	if err != nil {
		return grading.OXResult{}, err
	}
	restore := e.checkpoint(p)
	res, err := e.grader.ApplyOX(p, side)
	if err != nil {
		return grading.OXResult{}, err
	}
	if err := e.saveAll(ctx); err != nil {
		restore()
		return grading.OXResult{}, err
	}
	return res, nil
}

// checkpoint captures everything grading p can touch. The returned func puts
// it back, so an answer whose save failed can be retried without counting twice.
func (e *Engine) checkpoint(p *model.Problem) func() {
	saved := *p
	daily := copyCounters(e.ledger.Daily)
	categories := copyCounters(e.ledger.Categories)
	forced := append([]model.ForcedEntry(nil), e.app.ForcedQueue...)
	return func() {
		*p = saved
		e.ledger.Daily = daily
		e.ledger.Categories = categories
		e.app.ForcedQueue = forced
	}
}

func (e *Engine) live(id string) (*model.Problem, error) {
	p, ok := e.problems.Get(id)
	if !ok || p.Deleted {
		return nil, fmt.Errorf("%w: %s", problem.ErrNotFound, id)
	}
	return p, nil
}

// Add stores a new problem and remembers its categories for the next one.
func (e *Engine) Add(ctx context.Context, p model.Problem) (model.Problem, error) {
	if err := e.problems.Add(p); err != nil {
		return model.Problem{}, err
	}
	stored, _ := e.problems.Get(p.ID)
	e.app.LastSavedCats = append([]string(nil), stored.Categories...)
	return *stored, e.save(ctx, store.KeyProblems, store.KeyAppState)
}

// LastCategories returns the categories of the most recently added problem.
func (e *Engine) LastCategories() []string {
	return append([]string(nil), e.app.LastSavedCats...)
}

// Edit replaces the content and categories of a problem.
func (e *Engine) Edit(ctx context.Context, id string, c model.Content, categories []string) (model.Problem, error) {
	if err := e.problems.Edit(id, c, categories, e.now()); err != nil {
		return model.Problem{}, err
	}
	p, _ := e.problems.Get(id)
	return *p, e.save(ctx, store.KeyProblems)
}

// Delete soft-deletes a problem.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.setDeleted(ctx, id, true)
}

// Restore clears the soft-delete flag.
func (e *Engine) Restore(ctx context.Context, id string) error {
	return e.setDeleted(ctx, id, false)
}

func (e *Engine) setDeleted(ctx context.Context, id string, deleted bool) error {
	if err := e.problems.SetDeleted(id, deleted, e.now()); err != nil {
		return err
	}
	return e.save(ctx, store.KeyProblems)
}

// Get returns a copy of a problem, deleted ones included.
func (e *Engine) Get(id string) (model.Problem, bool) {
	p, ok := e.problems.Get(id)
	if !ok {
		return model.Problem{}, false
	}
	return *p, true
}

// List returns live problems matching any of categories and type t, capped
// at problem.MaxListItems, plus the uncapped count.
func (e *Engine) List(categories []string, t model.ProblemType) ([]model.Problem, int) {
	matched, total := e.problems.List(categories, t)
	return values(matched), total
}

// Deleted returns soft-deleted problems.
func (e *Engine) Deleted() []model.Problem {
	var out []model.Problem
	for _, p := range e.problems.All() {
		if p.Deleted {
			out = append(out, *p)
		}
	}
	return out
}

// Categories returns the sorted labels of live problems.
func (e *Engine) Categories() []string {
	return e.problems.Categories()
}

// Problems returns copies of every problem.
func (e *Engine) Problems() []model.Problem {
	return e.problems.Snapshot()
}

// Report builds the statistics report.
func (e *Engine) Report(cfg model.StatsConfig) stats.Report {
	if cfg.Now.IsZero() {
		cfg.Now = e.now()
	}
	return stats.BuildReport(e.ledger, e.problems.Snapshot(), cfg)
}

// Export returns live problems in any of categories (empty = all) together
// with both stat ledgers.
func (e *Engine) Export(categories []string) model.Bundle {
	problems := []model.Problem{}
	for _, p := range e.problems.Active() {
		if len(categories) == 0 || p.HasCategory(categories) {
			problems = append(problems, *p)
		}
	}
	return model.Bundle{
		Problems:      problems,
		DailyStats:    copyCounters(e.ledger.Daily),
		CategoryStats: copyCounters(e.ledger.Categories),
	}
}

// ImportResult summarizes a merge.
type ImportResult struct {
	Added   int
	Updated int
}

// Import merges a bundle: local history of existing problems wins,
// categories are unioned and incoming stats overwrite on conflict.
func (e *Engine) Import(ctx context.Context, b model.Bundle) (ImportResult, error) {
	added, updated := e.problems.Merge(b.Problems, e.now())
	e.ledger.Merge(b.DailyStats, b.CategoryStats)
	return ImportResult{Added: added, Updated: updated}, e.saveAll(ctx)
}

func values(ptrs []*model.Problem) []model.Problem {
	out := make([]model.Problem, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

func copyCounters(in map[string]model.Counter) map[string]model.Counter {
	out := make(map[string]model.Counter, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
