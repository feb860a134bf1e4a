// Package memory provides seeded in-memory repositories for tests and local
// development without a live sheet feed.
package memory

import (
	"context"
	"sync"

	"github.com/cfbbelt/beltbot/internal/domain/game"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/domain/school"
)

type GameRepository struct {
	mu    sync.RWMutex
	games []game.Game
}

func NewGameRepository(games []game.Game) *GameRepository {
	return &GameRepository{games: append([]game.Game(nil), games...)}
}

func (r *GameRepository) ListGames(_ context.Context, _ bool) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]game.Game(nil), r.games...), nil
}

func (r *GameRepository) Append(g game.Game) {
	r.mu.Lock()
	r.games = append(r.games, g)
	r.mu.Unlock()
}

type ScheduleRepository struct {
	mu    sync.RWMutex
	games []schedule.Game
}

func NewScheduleRepository(games []schedule.Game) *ScheduleRepository {
	return &ScheduleRepository{games: append([]schedule.Game(nil), games...)}
}

func (r *ScheduleRepository) ListSchedule(_ context.Context, _ bool) ([]schedule.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]schedule.Game(nil), r.games...), nil
}

type SchoolRepository struct {
	mu      sync.RWMutex
	schools []school.School
}

func NewSchoolRepository(schools []school.School) *SchoolRepository {
	return &SchoolRepository{schools: append([]school.School(nil), schools...)}
}

func (r *SchoolRepository) ListSchools(_ context.Context, _ bool) ([]school.School, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]school.School(nil), r.schools...), nil
}
