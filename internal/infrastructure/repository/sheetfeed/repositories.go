package sheetfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/cfbbelt/beltbot/internal/domain/game"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/domain/school"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/platform/resilience"
	"github.com/cfbbelt/beltbot/internal/usecase"
)

const defaultTTL = 15 * time.Minute

// Source is the CSV feed the snapshot repositories refresh from.
type Source interface {
	FetchGames(ctx context.Context) ([]game.Game, error)
	FetchSchedule(ctx context.Context) ([]schedule.Game, error)
	FetchSchools(ctx context.Context) ([]school.School, error)
}

type Config struct {
	TTL    time.Duration
	Logger *logging.Logger
	Now    func() time.Time
}

// Repositories serves the three belt tables from in-memory snapshots,
// refetched from the Source after the TTL or on force-refresh. A refresh
// replaces the whole snapshot slice, so readers iterating the previous one
// are unaffected. When a refresh fails and a previous snapshot exists, the
// stale rows are served and the failure is only logged; with nothing cached
// the fetch error surfaces as ErrDataUnavailable.
type Repositories struct {
	games   *table[game.Game]
	sched   *table[schedule.Game]
	schools *table[school.School]
}

func New(source Source, cfg Config) *Repositories {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Repositories{
		games:   newTable("games", source.FetchGames, cfg),
		sched:   newTable("schedule", source.FetchSchedule, cfg),
		schools: newTable("schools", source.FetchSchools, cfg),
	}
}

func (r *Repositories) ListGames(ctx context.Context, forceRefresh bool) ([]game.Game, error) {
	return r.games.load(ctx, forceRefresh)
}

func (r *Repositories) ListSchedule(ctx context.Context, forceRefresh bool) ([]schedule.Game, error) {
	return r.sched.load(ctx, forceRefresh)
}

func (r *Repositories) ListSchools(ctx context.Context, forceRefresh bool) ([]school.School, error) {
	return r.schools.load(ctx, forceRefresh)
}

// WarmUp fetches all three tables concurrently. Failures are tolerated; the
// tables fall back to fetch-on-first-use.
func (r *Repositories) WarmUp(ctx context.Context) {
	var wg conc.WaitGroup
	wg.Go(func() { _, _ = r.ListGames(ctx, false) })
	wg.Go(func() { _, _ = r.ListSchedule(ctx, false) })
	wg.Go(func() { _, _ = r.ListSchools(ctx, false) })
	wg.Wait()
}

type snapshot[T any] struct {
	rows      []T
	fetchedAt time.Time
}

type table[T any] struct {
	name   string
	ttl    time.Duration
	now    func() time.Time
	fetch  func(ctx context.Context) ([]T, error)
	logger *logging.Logger

	mu     sync.RWMutex
	snap   *snapshot[T]
	flight resilience.SingleFlight
}

func newTable[T any](name string, fetch func(ctx context.Context) ([]T, error), cfg Config) *table[T] {
	return &table[T]{
		name:   name,
		ttl:    cfg.TTL,
		now:    cfg.Now,
		fetch:  fetch,
		logger: cfg.Logger,
	}
}

func (t *table[T]) load(ctx context.Context, forceRefresh bool) ([]T, error) {
	if !forceRefresh {
		if snap := t.current(); snap != nil && t.now().Sub(snap.fetchedAt) < t.ttl {
			return snap.rows, nil
		}
	}

	_, err, _ := t.flight.Do(t.name, func() (any, error) {
		rows, fetchErr := t.fetch(ctx)
		if fetchErr != nil {
			return nil, fetchErr
		}

		t.mu.Lock()
		t.snap = &snapshot[T]{rows: rows, fetchedAt: t.now()}
		t.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		if snap := t.current(); snap != nil {
			t.logger.WarnContext(ctx, "sheet refresh failed, serving stale snapshot",
				"table", t.name,
				"age", t.now().Sub(snap.fetchedAt).String(),
				"error", err,
			)
			return snap.rows, nil
		}
		return nil, fmt.Errorf("%w: refresh %s: %v", usecase.ErrDataUnavailable, t.name, err)
	}

	snap := t.current()
	if snap == nil {
		return nil, fmt.Errorf("%w: %s snapshot missing after refresh", usecase.ErrDataUnavailable, t.name)
	}
	return snap.rows, nil
}

func (t *table[T]) current() *snapshot[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
