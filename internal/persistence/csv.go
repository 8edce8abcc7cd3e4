package persistence

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Samer-Is/RPI/internal/domain"
)

// Snapshot column headers, matching the extraction collaborator's export.
const (
	colContractID = "ContractID"
	colBranchID   = "PickupBranchId"
	colCategoryID = "CategoryId"
	colDailyRate  = "DailyRateAmount"
	colStartDate  = "StartDate"
	colDuration   = "DurationDays"
)

// snapshot start dates come in either form depending on the export tool.
var snapshotDateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// LoadContractsCSV reads a contract snapshot exported by the extraction
// collaborator. Rows with malformed numeric fields are skipped with a
// warning rather than aborting the load; a missing required header is fatal.
func LoadContractsCSV(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contract snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var (
		contracts []domain.Transaction
		skipped   int
		line      = 1
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read snapshot line %d: %w", line, err)
		}

		c, err := parseContract(record, idx)
		if err != nil {
			skipped++
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed snapshot row")
			continue
		}
		contracts = append(contracts, c)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("loaded", len(contracts)).Str("path", path).
			Msg("contract snapshot loaded with malformed rows")
	}
	if len(contracts) == 0 {
		return nil, fmt.Errorf("contract snapshot %s holds no usable rows", path)
	}
	return contracts, nil
}

type columnIndex struct {
	id, branch, category, rate, start, duration int
}

func headerIndex(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}
	idx := columnIndex{}
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{colContractID, &idx.id},
		{colBranchID, &idx.branch},
		{colCategoryID, &idx.category},
		{colDailyRate, &idx.rate},
		{colStartDate, &idx.start},
		{colDuration, &idx.duration},
	} {
		i, ok := pos[col.name]
		if !ok {
			return columnIndex{}, fmt.Errorf("contract snapshot missing column %q", col.name)
		}
		*col.dst = i
	}
	return idx, nil
}

func parseContract(record []string, idx columnIndex) (domain.Transaction, error) {
	id, err := strconv.ParseInt(record[idx.id], 10, 64)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("contract id %q: %w", record[idx.id], err)
	}
	branch, err := strconv.ParseInt(record[idx.branch], 10, 64)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("branch id %q: %w", record[idx.branch], err)
	}
	category, err := strconv.ParseInt(record[idx.category], 10, 64)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("category id %q: %w", record[idx.category], err)
	}
	rate, err := strconv.ParseFloat(record[idx.rate], 64)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("daily rate %q: %w", record[idx.rate], err)
	}
	start, err := parseSnapshotDate(record[idx.start])
	if err != nil {
		return domain.Transaction{}, err
	}
	duration, err := strconv.Atoi(record[idx.duration])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("duration %q: %w", record[idx.duration], err)
	}

	return domain.Transaction{
		ID:           id,
		BranchID:     branch,
		CategoryID:   category,
		DailyRate:    rate,
		Start:        start,
		DurationDays: duration,
	}, nil
}

// StartedAfter returns the contracts whose start is strictly after cutoff,
// preserving input order. A zero cutoff keeps everything, so the first ingest
// into an empty mirror takes the whole snapshot.
func StartedAfter(contracts []domain.Transaction, cutoff time.Time) []domain.Transaction {
	fresh := make([]domain.Transaction, 0, len(contracts))
	for _, c := range contracts {
		if c.Start.After(cutoff) {
			fresh = append(fresh, c)
		}
	}
	return fresh
}

func parseSnapshotDate(s string) (time.Time, error) {
	for _, layout := range snapshotDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable start date %q", s)
}
