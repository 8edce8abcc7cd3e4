package features

import (
	"math"
	"time"

	"github.com/Samer-Is/RPI/internal/calendar"
)

// TemporalValues fills the plain temporal encodings plus the Fourier
// harmonics for one date. Day-of-week follows the Monday=0 convention of the
// historical training data; weekends are Saturday and Sunday.
func TemporalValues(date time.Time, vals map[string]float64) {
	dow := (int(date.Weekday()) + 6) % 7
	_, week := date.ISOWeek()
	doy := float64(date.YearDay())

	vals[ColDayOfWeek] = float64(dow)
	vals[ColDayOfMonth] = float64(date.Day())
	vals[ColWeekOfYear] = float64(week)
	vals[ColMonth] = float64(int(date.Month()))
	vals[ColQuarter] = float64((int(date.Month())-1)/3 + 1)
	vals[ColIsWeekend] = boolToF(dow >= 5)
	vals[ColDayOfYear] = doy

	for _, spec := range fourierSpecs {
		for k := 1; k <= spec.KMax; k++ {
			angle := 2 * math.Pi * float64(k) * doy / float64(spec.Period)
			vals[fourierCol("sin", spec.Period, k)] = math.Sin(angle)
			vals[fourierCol("cos", spec.Period, k)] = math.Cos(angle)
		}
	}
}

// EventValues fills the calendar signals and the derived holiday flags.
// A neutral calendar day yields all zeros.
func EventValues(day calendar.Day, vals map[string]float64) {
	vals[ColIsHoliday] = day.IsHoliday
	vals[ColHolidayDuration] = day.HolidayDuration
	vals[ColIsSchoolVacation] = day.IsSchoolVacation
	vals[ColIsRamadan] = day.IsRamadan
	vals[ColIsUmrahSeason] = day.IsUmrahSeason
	vals[ColUmrahIntensity] = day.UmrahSeasonIntensity
	vals[ColIsMajorEvent] = day.IsMajorEvent
	vals[ColIsHajj] = day.IsHajj
	vals[ColIsFestival] = day.IsFestival
	vals[ColIsSportsEvent] = day.IsSportsEvent
	vals[ColDaysToHoliday] = day.DaysToHoliday
	vals[ColDaysFromHoliday] = day.DaysFromHoliday

	vals[ColIsLongHoliday] = boolToF(day.HolidayDuration >= 4)
	vals[ColNearHoliday] = boolToF(day.DaysToHoliday >= 0 && day.DaysToHoliday <= 2)
	vals[ColPostHoliday] = boolToF(day.DaysFromHoliday >= 0 && day.DaysFromHoliday <= 2)
}

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
