// Package httpapi exposes belt state over a small read-only JSON API, mainly
// for the tracker website and for poking at the bot's view of the data.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cfbbelt/beltbot/internal/platform/logging"
	"github.com/cfbbelt/beltbot/internal/usecase"
)

type Handler struct {
	beltService  *usecase.BeltService
	chaseService *usecase.ChaseService
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(beltService *usecase.BeltService, chaseService *usecase.ChaseService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		beltService:  beltService,
		chaseService: chaseService,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type beltStatusDTO struct {
	ChampionID   string `json:"champion_id"`
	ChampionName string `json:"champion_name"`
	ReignStart   string `json:"reign_start"`
	DaysHeld     int    `json:"days_held"`
	Defenses     int    `json:"defenses"`
}

func (h *Handler) GetBeltStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBeltStatus")
	defer span.End()

	status, err := h.beltService.CurrentChampion(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get belt status failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, beltStatusDTO{
		ChampionID:   status.ChampionID,
		ChampionName: status.ChampionName,
		ReignStart:   status.ReignStart.Format(time.RFC3339),
		DaysHeld:     status.DaysHeld,
		Defenses:     status.Defenses,
	})
}

type beltStatsDTO struct {
	TotalBeltGames int    `json:"total_belt_games"`
	TotalChanges   int    `json:"total_changes"`
	TotalDefenses  int    `json:"total_defenses"`
	FirstChange    string `json:"first_change"`
	DaysSinceStart int    `json:"days_since_start"`
}

func (h *Handler) GetBeltStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBeltStats")
	defer span.End()

	stats, err := h.beltService.OverallStats(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get belt stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, beltStatsDTO{
		TotalBeltGames: stats.TotalBeltGames,
		TotalChanges:   stats.TotalChanges,
		TotalDefenses:  stats.TotalDefenses,
		FirstChange:    stats.FirstChange.Format("2006-01-02"),
		DaysSinceStart: stats.DaysSinceStart,
	})
}

type reignDTO struct {
	ChampionID   string  `json:"champion_id"`
	ChampionName string  `json:"champion_name"`
	Start        string  `json:"start"`
	End          *string `json:"end,omitempty"`
	Days         int     `json:"days"`
	Defenses     int     `json:"defenses"`
	Current      bool    `json:"current"`
}

func (h *Handler) ListReigns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListReigns")
	defer span.End()

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be an integer between 1 and 100", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	reigns, err := h.beltService.LongestReigns(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list reigns failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]reignDTO, 0, len(reigns))
	for _, reign := range reigns {
		var end *string
		if reign.End != nil {
			v := reign.End.Format("2006-01-02")
			end = &v
		}
		items = append(items, reignDTO{
			ChampionID:   reign.ChampionID,
			ChampionName: reign.ChampionName,
			Start:        reign.Start.Format("2006-01-02"),
			End:          end,
			Days:         reign.Days,
			Defenses:     reign.Defenses,
			Current:      reign.Current,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

type teamHistoryRequest struct {
	Team string `validate:"required,min=2,max=64"`
}

type teamHistoryDTO struct {
	TeamID           string  `json:"team_id"`
	TeamName         string  `json:"team_name"`
	TotalReigns      int     `json:"total_reigns"`
	TotalDaysHeld    int     `json:"total_days_held"`
	TotalDefenses    int     `json:"total_defenses"`
	LongestReignDays int     `json:"longest_reign_days"`
	LastHeld         *string `json:"last_held,omitempty"`
	LastWonFrom      string  `json:"last_won_from,omitempty"`
	LastLostTo       string  `json:"last_lost_to,omitempty"`
}

func (h *Handler) GetTeamHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamHistory")
	defer span.End()

	req := teamHistoryRequest{Team: r.URL.Query().Get("team")}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	history, err := h.beltService.TeamHistory(ctx, req.Team)
	if err != nil {
		h.logger.WarnContext(ctx, "get team history failed", "team", req.Team, "error", err)
		writeError(ctx, w, err)
		return
	}

	dto := teamHistoryDTO{
		TeamID:           history.School.ID,
		TeamName:         history.School.Name,
		TotalReigns:      history.TotalReigns,
		TotalDaysHeld:    history.TotalDaysHeld,
		TotalDefenses:    history.TotalDefenses,
		LongestReignDays: history.LongestReignDays,
		LastWonFrom:      history.LastWonFrom,
		LastLostTo:       history.LastLostTo,
	}
	if history.LastHeld != nil {
		v := history.LastHeld.Format("2006-01-02")
		dto.LastHeld = &v
	}
	writeSuccess(ctx, w, http.StatusOK, dto)
}

type chaseEntryDTO struct {
	TeamID       string `json:"team_id"`
	TeamName     string `json:"team_name"`
	GamesAway    int    `json:"games_away"`
	EarliestWeek int    `json:"earliest_week"`
}

type chaseDTO struct {
	ChampionID   string          `json:"champion_id"`
	ChampionName string          `json:"champion_name"`
	Entries      []chaseEntryDTO `json:"entries"`
}

func (h *Handler) GetBeltChase(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBeltChase")
	defer span.End()

	report, err := h.chaseService.Reachable(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get belt chase failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	entries := make([]chaseEntryDTO, 0, len(report.Entries))
	for _, e := range report.Entries {
		entries = append(entries, chaseEntryDTO{
			TeamID:       e.TeamID,
			TeamName:     e.TeamName,
			GamesAway:    e.GamesAway,
			EarliestWeek: e.EarliestWeek,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, chaseDTO{
		ChampionID:   report.ChampionID,
		ChampionName: report.ChampionName,
		Entries:      entries,
	})
}

type nextGameDTO struct {
	Date         string `json:"date"`
	Week         int    `json:"week"`
	Venue        string `json:"venue"`
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	ChampionHome bool   `json:"champion_home"`
	Scheduled    bool   `json:"scheduled"`
}

func (h *Handler) GetNextBeltGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetNextBeltGame")
	defer span.End()

	next, found, err := h.beltService.NextBeltGame(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get next belt game failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeSuccess(ctx, w, http.StatusOK, nextGameDTO{Scheduled: false})
		return
	}

	writeSuccess(ctx, w, http.StatusOK, nextGameDTO{
		Date:         next.Date.Format(time.RFC3339),
		Week:         next.Week,
		Venue:        next.Venue,
		OpponentID:   next.OpponentID,
		OpponentName: next.OpponentName,
		ChampionHome: next.ChampionHome,
		Scheduled:    true,
	})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
