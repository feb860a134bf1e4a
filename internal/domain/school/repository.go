package school

import "context"

// Repository exposes the id→name directory rows.
type Repository interface {
	ListSchools(ctx context.Context, forceRefresh bool) ([]School, error)
}
