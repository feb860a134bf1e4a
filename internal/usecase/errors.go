package usecase

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDataUnavailable     = errors.New("belt data unavailable")
	ErrNoChampionData      = errors.New("no champion data in game log")
	ErrTeamNotFound        = errors.New("team not found")
	ErrScheduleUnavailable = errors.New("schedule unavailable")
)

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
