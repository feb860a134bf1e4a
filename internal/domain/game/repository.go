package game

import "context"

// Repository exposes read access to the historical game log.
type Repository interface {
	ListGames(ctx context.Context, forceRefresh bool) ([]Game, error)
}
