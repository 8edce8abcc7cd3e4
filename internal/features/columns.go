package features

import "strconv"

// Canonical feature column names. Feature vectors are positional, so these
// lists define the exact training and inference order; loaders verify the
// order round-trips with model artifacts.

// Temporal columns.
const (
	ColDayOfWeek  = "DayOfWeek"
	ColDayOfMonth = "DayOfMonth"
	ColWeekOfYear = "WeekOfYear"
	ColMonth      = "Month"
	ColQuarter    = "Quarter"
	ColIsWeekend  = "IsWeekend"
	ColDayOfYear  = "DayOfYear"
)

// Price columns.
const (
	ColAvgPrice          = "AvgPrice"
	ColStdPrice          = "StdPrice"
	ColPriceChange1d     = "Price_Change_1d"
	ColPriceChange7d     = "Price_Change_7d"
	ColPriceChangePct1d  = "Price_Change_Pct_1d"
	ColPriceChangePct7d  = "Price_Change_Pct_7d"
	ColPriceVsBranchAvg  = "Price_vs_BranchAvg"
	ColPriceVsCategory   = "Price_vs_CategoryAvg"
	ColPriceVolatility7d = "Price_Volatility_7d"
)

// Demand history columns.
const (
	ColDemandTrend7d          = "Demand_Trend_7d"
	ColDemandTrend30d         = "Demand_Trend_30d"
	ColDemandSameDayLastWeek  = "Demand_SameDayLastWeek"
	ColDemandSameDayLast2Week = "Demand_SameDayLast2Weeks"
)

// Event columns, sourced from the calendar collaborator.
const (
	ColIsHoliday        = "is_holiday"
	ColHolidayDuration  = "holiday_duration"
	ColIsSchoolVacation = "is_school_vacation"
	ColIsRamadan        = "is_ramadan"
	ColIsUmrahSeason    = "is_umrah_season"
	ColUmrahIntensity   = "umrah_season_intensity"
	ColIsMajorEvent     = "is_major_event"
	ColIsHajj           = "is_hajj"
	ColIsFestival       = "is_festival"
	ColIsSportsEvent    = "is_sports_event"
	ColDaysToHoliday    = "days_to_holiday"
	ColDaysFromHoliday  = "days_from_holiday"
	ColIsLongHoliday    = "is_long_holiday"
	ColNearHoliday      = "near_holiday"
	ColPostHoliday      = "post_holiday"
)

// Contextual bucket columns. These replace raw branch/category identifiers so
// the elasticity model learns price-response shape instead of memorizing
// per-branch price norms.
const (
	ColBranchSizeBucket      = "BranchSizeBucket"
	ColCategoryPopularityBkt = "CategoryPopularityBucket"
)

// DemandLags are the day offsets for direct demand lag features.
var DemandLags = []int{1, 2, 3, 7, 14, 21, 30}

// RollingWindows are the trailing window lengths for rolling demand stats.
var RollingWindows = []int{3, 7, 14, 30}

// fourierSpec holds one cyclic period and its harmonic count.
type fourierSpec struct {
	Period int
	KMax   int
}

// fourierSpecs mirror the weekly, monthly and yearly cycles of the demand
// series; harmonics let the model learn smooth cyclic effects without a
// discontinuity at year boundaries.
var fourierSpecs = []fourierSpec{{7, 3}, {30, 2}, {365, 3}}

// DemandLagCol returns the column name for a demand lag of n days.
func DemandLagCol(n int) string { return "Demand_Lag_" + itoa(n) + "d" }

// RollMeanCol returns the rolling-mean column name for a window of n days.
func RollMeanCol(n int) string { return "Demand_RollMean_" + itoa(n) + "d" }

// RollStdCol returns the rolling-std column name for a window of n days.
func RollStdCol(n int) string { return "Demand_RollStd_" + itoa(n) + "d" }

// FourierCols returns the sin/cos column names in canonical order.
func FourierCols() []string {
	cols := make([]string, 0, 16)
	for _, spec := range fourierSpecs {
		for k := 1; k <= spec.KMax; k++ {
			cols = append(cols, fourierCol("sin", spec.Period, k), fourierCol("cos", spec.Period, k))
		}
	}
	return cols
}

func fourierCol(fn string, period, k int) string {
	return fn + "_" + itoa(period) + "_" + itoa(k)
}

// TemporalColumns lists the plain temporal encodings.
func TemporalColumns() []string {
	return []string{ColDayOfWeek, ColDayOfMonth, ColWeekOfYear, ColMonth, ColQuarter, ColIsWeekend, ColDayOfYear}
}

// PriceColumns lists every live/lagged price feature. Stage 1 excludes all of
// these; Stage 2 includes them.
func PriceColumns() []string {
	return []string{
		ColAvgPrice, ColStdPrice,
		ColPriceChange1d, ColPriceChange7d,
		ColPriceChangePct1d, ColPriceChangePct7d,
		ColPriceVsBranchAvg, ColPriceVsCategory,
		ColPriceVolatility7d,
	}
}

// DemandHistoryColumns lists lag, rolling, trend and same-day features.
func DemandHistoryColumns() []string {
	cols := make([]string, 0, 24)
	for _, lag := range DemandLags {
		cols = append(cols, DemandLagCol(lag))
	}
	for _, w := range RollingWindows {
		cols = append(cols, RollMeanCol(w))
	}
	for _, w := range RollingWindows {
		cols = append(cols, RollStdCol(w))
	}
	cols = append(cols,
		ColDemandTrend7d, ColDemandTrend30d,
		ColDemandSameDayLastWeek, ColDemandSameDayLast2Week,
	)
	return cols
}

// EventColumns lists the external calendar signals plus derived flags.
func EventColumns() []string {
	return []string{
		ColIsHoliday, ColHolidayDuration, ColIsSchoolVacation, ColIsRamadan,
		ColIsUmrahSeason, ColUmrahIntensity, ColIsMajorEvent, ColIsHajj,
		ColIsFestival, ColIsSportsEvent, ColDaysToHoliday, ColDaysFromHoliday,
		ColIsLongHoliday, ColNearHoliday, ColPostHoliday,
	}
}

// ContextColumns lists the non-identifying bucket features.
func ContextColumns() []string {
	return []string{ColBranchSizeBucket, ColCategoryPopularityBkt}
}

// BaselineColumns is the Stage 1 feature order: structural, temporal,
// historical and event features only, with no live price signal.
func BaselineColumns() []string {
	cols := TemporalColumns()
	cols = append(cols, FourierCols()...)
	cols = append(cols, DemandHistoryColumns()...)
	cols = append(cols, EventColumns()...)
	cols = append(cols, ContextColumns()...)
	return cols
}

// ElasticityColumns is the Stage 2 feature order: the baseline set plus every
// price feature.
func ElasticityColumns() []string {
	cols := TemporalColumns()
	cols = append(cols, FourierCols()...)
	cols = append(cols, PriceColumns()...)
	cols = append(cols, DemandHistoryColumns()...)
	cols = append(cols, EventColumns()...)
	cols = append(cols, ContextColumns()...)
	return cols
}

// AllColumns is the full feature-table order used for dumps and imputation.
func AllColumns() []string {
	return ElasticityColumns()
}

func itoa(n int) string { return strconv.Itoa(n) }
