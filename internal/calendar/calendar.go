// Package calendar loads the holiday/event feature table produced by the
// external calendar collaborator. The core never fetches it remotely; it is
// materialized to a local CSV before a run.
package calendar

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Day holds the external event signals for one calendar date. All values are
// numeric so they can feed the feature table directly; boolean columns are
// 0/1. Absent columns default to 0.
type Day struct {
	Date                 time.Time
	IsHoliday            float64
	HolidayDuration      float64
	IsSchoolVacation     float64
	IsRamadan            float64
	IsHajj               float64
	IsUmrahSeason        float64
	UmrahSeasonIntensity float64
	IsMajorEvent         float64
	IsFestival           float64
	IsSportsEvent        float64
	DaysToHoliday        float64
	DaysFromHoliday      float64
}

// Neutral returns the all-zero Day used when no calendar data covers a date.
func Neutral(date time.Time) Day {
	return Day{Date: date}
}

// Table maps dates to their event signals.
type Table struct {
	days map[string]Day
}

// Empty returns a table with no coverage; every lookup yields neutral values.
func Empty() *Table {
	return &Table{days: map[string]Day{}}
}

// Lookup returns the Day for a date, falling back to neutral values when the
// table has no row for it.
func (t *Table) Lookup(date time.Time) Day {
	if d, ok := t.days[dateKey(date)]; ok {
		return d
	}
	return Neutral(date)
}

// Len reports how many dates the table covers.
func (t *Table) Len() int { return len(t.days) }

// LoadCSV reads the calendar feature table. The file has a header row with a
// "date" column (YYYY-MM-DD) plus any subset of the known signal columns;
// unknown columns are ignored and missing ones stay zero. A missing file is
// not an error: the builder proceeds with neutral event features.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("calendar table not found, event features default to neutral")
			return Empty(), nil
		}
		return nil, fmt.Errorf("failed to open calendar table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[name] = i
	}
	dateIdx, ok := col["date"]
	if !ok {
		return nil, fmt.Errorf("calendar table missing required date column")
	}

	table := Empty()
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar rows: %w", err)
	}
	for i, rec := range records {
		date, err := time.Parse("2006-01-02", rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("calendar row %d: bad date %q: %w", i+2, rec[dateIdx], err)
		}
		day := Day{Date: date}
		day.IsHoliday = field(rec, col, "is_holiday")
		day.HolidayDuration = field(rec, col, "holiday_duration")
		day.IsSchoolVacation = field(rec, col, "is_school_vacation")
		day.IsRamadan = field(rec, col, "is_ramadan")
		day.IsHajj = field(rec, col, "is_hajj")
		day.IsUmrahSeason = field(rec, col, "is_umrah_season")
		day.UmrahSeasonIntensity = field(rec, col, "umrah_season_intensity")
		day.IsMajorEvent = field(rec, col, "is_major_event")
		day.IsFestival = field(rec, col, "is_festival")
		day.IsSportsEvent = field(rec, col, "is_sports_event")
		day.DaysToHoliday = field(rec, col, "days_to_holiday")
		day.DaysFromHoliday = field(rec, col, "days_from_holiday")
		table.days[dateKey(date)] = day
	}

	log.Info().Str("path", path).Int("dates", table.Len()).Msg("calendar table loaded")
	return table, nil
}

// field parses a named column as float64, returning 0 for absent columns and
// unparseable values (intensity columns sometimes carry free text upstream).
func field(rec []string, col map[string]int, name string) float64 {
	idx, ok := col[name]
	if !ok || idx >= len(rec) {
		return 0
	}
	v, err := strconv.ParseFloat(rec[idx], 64)
	if err != nil {
		return 0
	}
	return v
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
