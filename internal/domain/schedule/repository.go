package schedule

import "context"

// Repository exposes read access to the future schedule.
type Repository interface {
	ListSchedule(ctx context.Context, forceRefresh bool) ([]Game, error)
}
