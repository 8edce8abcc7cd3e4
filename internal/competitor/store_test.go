package competitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIndex = `{
  "scrape_timestamp": "2024-06-14T06:00:00Z",
  "branches": {
    "Riyadh Airport Branch": {
      "categories": {
        "Economy": {
          "avg_price": 210,
          "competitors": [
            {"Competitor_Name": "Budget", "Competitor_Price": 180},
            {"Competitor_Name": "Hertz", "Competitor_Price": 250},
            {"Competitor_Name": "Sixt", "Competitor_Price": 200}
          ]
        },
        "SUV": {
          "avg_price": 0,
          "competitors": []
        }
      }
    },
    "Jeddah Downtown": {
      "categories": {
        "Economy": {
          "avg_price": 190,
          "competitors": [
            {"Competitor_Name": "Budget", "Competitor_Price": 190}
          ]
        }
      }
    }
  }
}`

func writeIndex(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "competitor_prices.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewStore_MissingFileStartsEmpty(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Empty(t, store.Branches())
	assert.Equal(t, Prices{}, store.Lookup("Riyadh Airport Branch", "Economy"))
	assert.Equal(t, StatusUnknown, store.Freshness(time.Now()).Status)
}

func TestNewStore_MalformedIndexFails(t *testing.T) {
	_, err := NewStore(writeIndex(t, "{not json"))
	assert.Error(t, err)
}

func TestLookup_ExactMatchSummarizesObservations(t *testing.T) {
	store, err := NewStore(writeIndex(t, sampleIndex))
	require.NoError(t, err)

	got := store.Lookup("Riyadh Airport Branch", "Economy")
	assert.Equal(t, 210.0, got.AvgPrice)
	assert.Equal(t, 180.0, got.MinPrice)
	assert.Equal(t, 250.0, got.MaxPrice)
	assert.Equal(t, 3, got.Count)
	require.Len(t, got.Prices, 3)
	assert.Equal(t, "Budget", got.Prices[0].Competitor)
}

func TestLookup_FuzzyBranchMatching(t *testing.T) {
	store, err := NewStore(writeIndex(t, sampleIndex))
	require.NoError(t, err)

	// Booking-system names rarely match scraper labels exactly.
	assert.Equal(t, 3, store.Lookup("riyadh airport", "Economy").Count)
	assert.Equal(t, 1, store.Lookup("JEDDAH DOWNTOWN BRANCH 04", "Economy").Count)
}

func TestLookup_MissesReturnEmptySummary(t *testing.T) {
	store, err := NewStore(writeIndex(t, sampleIndex))
	require.NoError(t, err)

	assert.Equal(t, Prices{}, store.Lookup("Dammam", "Economy"))
	assert.Equal(t, Prices{}, store.Lookup("Riyadh Airport Branch", "Luxury"))
}

func TestInvalidateAndReload(t *testing.T) {
	store, err := NewStore(writeIndex(t, sampleIndex))
	require.NoError(t, err)

	store.Invalidate()
	assert.Equal(t, Prices{}, store.Lookup("Riyadh Airport Branch", "Economy"))
	assert.Empty(t, store.Branches())

	require.NoError(t, store.Reload())
	assert.Equal(t, 3, store.Lookup("Riyadh Airport Branch", "Economy").Count)
	assert.ElementsMatch(t, []string{"Riyadh Airport Branch", "Jeddah Downtown"}, store.Branches())
}

func TestFreshnessTiers(t *testing.T) {
	store, err := NewStore(writeIndex(t, sampleIndex))
	require.NoError(t, err)

	scraped := time.Date(2024, 6, 14, 6, 0, 0, 0, time.UTC)
	cases := []struct {
		age    time.Duration
		status string
	}{
		{6 * time.Hour, StatusFresh},
		{30 * time.Hour, StatusStale},
		{72 * time.Hour, StatusExpired},
	}
	for _, c := range cases {
		got := store.Freshness(scraped.Add(c.age))
		assert.True(t, got.Available)
		assert.Equal(t, c.status, got.Status, "age %s", c.age)
		assert.InDelta(t, c.age.Hours(), got.AgeHours, 1e-9)
	}
}

func TestFreshness_UnparseableTimestamp(t *testing.T) {
	body := `{"scrape_timestamp": "yesterday", "branches": {}}`
	store, err := NewStore(writeIndex(t, body))
	require.NoError(t, err)

	got := store.Freshness(time.Now())
	assert.True(t, got.Available)
	assert.Equal(t, StatusUnknown, got.Status)
}

func TestCompare_Positions(t *testing.T) {
	market := Prices{AvgPrice: 200, Count: 3}

	at := Compare(205, market)
	assert.Equal(t, PositionAtMarket, at.Position)
	assert.InDelta(t, 2.5, at.DeltaPct, 1e-9)

	below := Compare(170, market)
	assert.Equal(t, PositionBelowMarket, below.Position)
	assert.InDelta(t, -15.0, below.DeltaPct, 1e-9)

	above := Compare(260, market)
	assert.Equal(t, PositionAboveMarket, above.Position)
	assert.Equal(t, 3, above.Competitors)
}

func TestCompare_NoData(t *testing.T) {
	empty := Compare(250, Prices{})
	assert.Equal(t, PositionNoData, empty.Position)
	assert.Equal(t, 0.0, empty.DeltaPct)

	zeroAvg := Compare(250, Prices{AvgPrice: 0, Count: 2})
	assert.Equal(t, PositionNoData, zeroAvg.Position)
}
