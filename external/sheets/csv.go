package sheets

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/cfbbelt/beltbot/internal/domain/game"
	"github.com/cfbbelt/beltbot/internal/domain/schedule"
	"github.com/cfbbelt/beltbot/internal/domain/school"
)

// dateLayouts covers the formats seen in the published sheets. The log
// reaches back to 1869, which time.Parse handles without special cases.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"January 2, 2006",
}

type csvTable struct {
	header map[string]int
	rows   [][]string
}

func parseCSV(raw []byte) (csvTable, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return csvTable{}, crerr.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return csvTable{}, crerr.New("csv has no header row")
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return csvTable{header: header, rows: records[1:]}, nil
}

func (t csvTable) field(row []string, name string) string {
	idx, ok := t.header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t csvTable) require(names ...string) error {
	for _, name := range names {
		if _, ok := t.header[name]; !ok {
			return crerr.Newf("csv is missing required column %q", name)
		}
	}
	return nil
}

func parseGames(table csvTable) ([]game.Game, error) {
	if err := table.require("date", "winner_id", "loser_id", "belt_change"); err != nil {
		return nil, err
	}

	out := make([]game.Game, 0, len(table.rows))
	for i, row := range table.rows {
		dateText := table.field(row, "date")
		if dateText == "" {
			continue
		}
		date, err := parseDate(dateText)
		if err != nil {
			return nil, fmt.Errorf("games row %d: %w", i+2, err)
		}

		out = append(out, game.Game{
			Date:        date,
			WinnerID:    table.field(row, "winner_id"),
			LoserID:     table.field(row, "loser_id"),
			WinnerScore: parseOptionalInt(table.field(row, "winner_score")),
			LoserScore:  parseOptionalInt(table.field(row, "loser_score")),
			BeltChange:  parseFlag(table.field(row, "belt_change")),
		})
	}
	return out, nil
}

func parseSchedule(table csvTable) ([]schedule.Game, error) {
	if err := table.require("start_date", "home_id", "away_id"); err != nil {
		return nil, err
	}

	out := make([]schedule.Game, 0, len(table.rows))
	for i, row := range table.rows {
		dateText := table.field(row, "start_date")
		if dateText == "" {
			continue
		}
		start, err := parseDate(dateText)
		if err != nil {
			return nil, fmt.Errorf("schedule row %d: %w", i+2, err)
		}

		week := 0
		if v, err := strconv.Atoi(table.field(row, "week")); err == nil {
			week = v
		}

		out = append(out, schedule.Game{
			StartDate: start,
			HomeID:    table.field(row, "home_id"),
			AwayID:    table.field(row, "away_id"),
			Venue:     table.field(row, "venue"),
			Week:      week,
			Completed: parseFlag(table.field(row, "completed")),
		})
	}
	return out, nil
}

// parseSchools reads the first two columns as (id, name); the published
// school sheet predates header discipline, so positions are authoritative.
func parseSchools(table csvTable) ([]school.School, error) {
	out := make([]school.School, 0, len(table.rows))
	for _, row := range table.rows {
		if len(row) < 2 {
			continue
		}
		id := strings.TrimSpace(row[0])
		name := strings.TrimSpace(row[1])
		if id == "" {
			continue
		}
		out = append(out, school.School{ID: id, Name: name})
	}
	return out, nil
}

func parseDate(text string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", text)
}

// parseFlag treats any non-empty value other than an explicit negative as
// set; the games sheet marks belt changes with scores, "TRUE", or just "x".
func parseFlag(text string) bool {
	switch strings.ToLower(text) {
	case "", "false", "0", "no", "n":
		return false
	default:
		return true
	}
}

func parseOptionalInt(text string) *int {
	if text == "" {
		return nil
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return nil
	}
	return &v
}
