package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cfbbelt/beltbot/internal/domain/chase"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

// ChaseService answers which teams can still take the belt this season by
// walking the remaining schedule from the current champion.
type ChaseService struct {
	belt         *BeltService
	scheduleRepo schedule.Repository
	logger       *logging.Logger
	now          func() time.Time
}

// ChaseEntry is one team with a live path to the belt.
type ChaseEntry struct {
	TeamID       string
	TeamName     string
	GamesAway    int
	EarliestWeek int
}

type ChaseReport struct {
	ChampionID   string
	ChampionName string
	Entries      []ChaseEntry
}

func NewChaseService(beltService *BeltService, scheduleRepo schedule.Repository, logger *logging.Logger) *ChaseService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ChaseService{
		belt:         beltService,
		scheduleRepo: scheduleRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Reachable reports every team with a schedule path to the belt, nearest
// first. An empty entry list means the belt cannot move again this season.
func (s *ChaseService) Reachable(ctx context.Context) (ChaseReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChaseService.Reachable")
	defer span.End()

	status, err := s.belt.CurrentChampion(ctx)
	if err != nil {
		return ChaseReport{}, err
	}

	games, err := s.scheduleRepo.ListSchedule(ctx, false)
	if err != nil {
		return ChaseReport{}, fmt.Errorf("%w: %v", ErrScheduleUnavailable, err)
	}

	paths := chase.Reachable(status.ChampionID, schedule.Upcoming(games, s.now()))

	dir, _ := s.belt.Directory(ctx)
	entries := make([]ChaseEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, ChaseEntry{
			TeamID:       p.TeamID,
			TeamName:     dir.NameOf(p.TeamID),
			GamesAway:    p.GamesAway,
			EarliestWeek: p.EarliestWeek,
		})
	}

	s.logger.DebugContext(ctx, "belt chase computed",
		"champion_id", status.ChampionID,
		"reachable", len(entries),
	)

	return ChaseReport{
		ChampionID:   status.ChampionID,
		ChampionName: status.ChampionName,
		Entries:      entries,
	}, nil
}
