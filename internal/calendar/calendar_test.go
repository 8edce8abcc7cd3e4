package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCalendar(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar_features.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCSV_ParsesKnownColumns(t *testing.T) {
	body := "date,is_holiday,holiday_duration,is_ramadan,days_to_holiday\n" +
		"2024-06-15,1,4,0,0\n" +
		"2024-06-16,0,0,0,12\n"

	table, err := LoadCSV(writeCalendar(t, body))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	eid := table.Lookup(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1.0, eid.IsHoliday)
	assert.Equal(t, 4.0, eid.HolidayDuration)
	assert.Equal(t, 0.0, eid.IsRamadan)

	next := table.Lookup(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 12.0, next.DaysToHoliday)
	// Columns absent from the file stay zero.
	assert.Equal(t, 0.0, next.IsUmrahSeason)
}

func TestLoadCSV_UnknownColumnsIgnored(t *testing.T) {
	body := "date,is_holiday,scraper_notes\n" +
		"2024-06-15,1,eid al-adha\n"

	table, err := LoadCSV(writeCalendar(t, body))
	require.NoError(t, err)
	assert.Equal(t, 1.0, table.Lookup(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)).IsHoliday)
}

func TestLoadCSV_UnparseableValueDefaultsToZero(t *testing.T) {
	body := "date,umrah_season_intensity\n" +
		"2024-06-15,peak\n"

	table, err := LoadCSV(writeCalendar(t, body))
	require.NoError(t, err)
	assert.Equal(t, 0.0, table.Lookup(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)).UmrahSeasonIntensity)
}

func TestLoadCSV_MissingFileYieldsEmptyTable(t *testing.T) {
	table, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadCSV_MissingDateColumnIsFatal(t *testing.T) {
	_, err := LoadCSV(writeCalendar(t, "is_holiday\n1\n"))
	assert.Error(t, err)
}

func TestLoadCSV_BadDateIsFatal(t *testing.T) {
	_, err := LoadCSV(writeCalendar(t, "date,is_holiday\nJune 15,1\n"))
	assert.Error(t, err)
}

func TestLookup_UncoveredDateIsNeutral(t *testing.T) {
	table := Empty()
	date := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	day := table.Lookup(date)
	assert.Equal(t, Neutral(date), day)
	assert.Equal(t, 0.0, day.IsHoliday)
	assert.Equal(t, date, day.Date)
}
