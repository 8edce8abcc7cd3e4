// Package competitor reads the daily competitor-price index produced by the
// scraper collaborators and compares recommended prices against it.
package competitor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Observation is one scraped competitor price.
type Observation struct {
	Competitor string  `json:"Competitor_Name"`
	Price      float64 `json:"Competitor_Price"`
}

// categoryEntry is the per-category node of the scrape document.
type categoryEntry struct {
	AvgPrice    float64       `json:"avg_price"`
	Competitors []Observation `json:"competitors"`
}

// branchEntry is the per-branch node of the scrape document.
type branchEntry struct {
	Categories map[string]categoryEntry `json:"categories"`
}

// document is the on-disk shape written by the daily scraper.
type document struct {
	ScrapeTimestamp string                 `json:"scrape_timestamp"`
	Branches        map[string]branchEntry `json:"branches"`
}

// Prices summarizes the competitor observations for one branch/category.
type Prices struct {
	AvgPrice float64       `json:"avg_price"`
	MinPrice float64       `json:"min_price"`
	MaxPrice float64       `json:"max_price"`
	Count    int           `json:"competitor_count"`
	Prices   []Observation `json:"competitors"`
}

// Freshness reports the age of the loaded scrape.
type Freshness struct {
	Available bool      `json:"available"`
	ScrapedAt time.Time `json:"scraped_at,omitempty"`
	AgeHours  float64   `json:"age_hours,omitempty"`
	Status    string    `json:"status"`
}

// Freshness tiers, keyed to the daily scrape cadence.
const (
	StatusFresh   = "fresh"
	StatusStale   = "stale"
	StatusExpired = "expired"
	StatusUnknown = "unknown"
)

// Store holds one parsed competitor-price index. It is constructed by the
// caller and passed by reference; Reload and Invalidate replace or drop the
// cached document explicitly, so there is no hidden cross-call state. Reads
// are safe from multiple goroutines.
type Store struct {
	path string

	mu       sync.RWMutex
	doc      *document
	loadedAt time.Time
}

// NewStore opens and parses the index at path. A missing file is not fatal:
// the store starts empty and a later Reload can populate it.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("competitor price index missing, store starts empty")
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

// Reload re-reads the index from disk, replacing the cached document
// atomically so concurrent readers never observe a partial load.
func (s *Store) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse competitor index %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.doc = &doc
	s.loadedAt = time.Now()
	s.mu.Unlock()

	log.Info().
		Str("path", s.path).
		Str("scraped_at", doc.ScrapeTimestamp).
		Int("branches", len(doc.Branches)).
		Msg("competitor price index loaded")
	return nil
}

// Invalidate drops the cached document; lookups return empty results until
// the next Reload.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.doc = nil
	s.mu.Unlock()
}

// Lookup returns the competitor prices for a branch/category pair. Branch
// matching falls back to a case-insensitive substring match because scraper
// branch labels drift from the booking-system names. Misses return an empty
// summary rather than an error.
func (s *Store) Lookup(branch, category string) Prices {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc == nil {
		return Prices{}
	}

	entry, ok := doc.Branches[branch]
	if !ok {
		entry, ok = fuzzyBranch(doc.Branches, branch)
	}
	if !ok {
		return Prices{}
	}
	cat, ok := entry.Categories[category]
	if !ok {
		return Prices{}
	}

	out := Prices{
		AvgPrice: cat.AvgPrice,
		Count:    len(cat.Competitors),
		Prices:   cat.Competitors,
	}
	for i, obs := range cat.Competitors {
		if i == 0 || obs.Price < out.MinPrice {
			out.MinPrice = obs.Price
		}
		if obs.Price > out.MaxPrice {
			out.MaxPrice = obs.Price
		}
	}
	return out
}

// Branches lists the branch labels present in the loaded index.
func (s *Store) Branches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil
	}
	names := make([]string, 0, len(s.doc.Branches))
	for name := range s.doc.Branches {
		names = append(names, name)
	}
	return names
}

// Freshness reports how old the loaded scrape is. Under a daily cadence the
// index is fresh below 24h, stale below 48h and expired beyond that.
func (s *Store) Freshness(now time.Time) Freshness {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc == nil {
		return Freshness{Status: StatusUnknown}
	}

	scraped, err := time.Parse(time.RFC3339, doc.ScrapeTimestamp)
	if err != nil {
		return Freshness{Available: true, Status: StatusUnknown}
	}
	age := now.Sub(scraped).Hours()
	status := StatusExpired
	switch {
	case age < 24:
		status = StatusFresh
	case age < 48:
		status = StatusStale
	}
	return Freshness{Available: true, ScrapedAt: scraped, AgeHours: age, Status: status}
}

func fuzzyBranch(branches map[string]branchEntry, name string) (branchEntry, bool) {
	needle := strings.ToLower(name)
	for label, entry := range branches {
		stored := strings.ToLower(label)
		if strings.Contains(stored, needle) || strings.Contains(needle, stored) {
			return entry, true
		}
	}
	return branchEntry{}, false
}
