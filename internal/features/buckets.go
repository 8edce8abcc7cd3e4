package features

import "github.com/Samer-Is/RPI/internal/domain"

// Bucket cutoffs, in mean daily bookings. Branch size and category popularity
// are binned into ordinal tiers 0-3 so the models see scale context without
// memorizing per-branch or per-category identity.
var (
	branchSizeCutoffs  = []float64{20, 50, 100}
	categoryPopCutoffs = []float64{10, 30, 60}
)

// Buckets holds the frozen contextual-bucket assignments computed from a
// training corpus, reused verbatim at inference time.
type Buckets struct {
	BranchCutoffs   []float64         `json:"branch_cutoffs"`
	CategoryCutoffs []float64         `json:"category_cutoffs"`
	Branch          map[int64]float64 `json:"branch"`
	Category        map[int64]float64 `json:"category"`
}

// FitBuckets bins each branch and category by its historical mean daily
// bookings across the aggregate table.
func FitBuckets(aggs []domain.DailyAggregate) *Buckets {
	branchStat := map[int64]*expandingStat{}
	categoryStat := map[int64]*expandingStat{}
	for _, a := range aggs {
		if branchStat[a.BranchID] == nil {
			branchStat[a.BranchID] = &expandingStat{}
		}
		if categoryStat[a.CategoryID] == nil {
			categoryStat[a.CategoryID] = &expandingStat{}
		}
		branchStat[a.BranchID].add(a.Bookings)
		categoryStat[a.CategoryID].add(a.Bookings)
	}

	b := &Buckets{
		BranchCutoffs:   branchSizeCutoffs,
		CategoryCutoffs: categoryPopCutoffs,
		Branch:          make(map[int64]float64, len(branchStat)),
		Category:        make(map[int64]float64, len(categoryStat)),
	}
	for id, stat := range branchStat {
		mean, _ := stat.mean()
		b.Branch[id] = bucketOf(mean, branchSizeCutoffs)
	}
	for id, stat := range categoryStat {
		mean, _ := stat.mean()
		b.Category[id] = bucketOf(mean, categoryPopCutoffs)
	}
	return b
}

// BranchBucket returns the size tier for a branch, tier 0 when unseen.
func (b *Buckets) BranchBucket(branchID int64) float64 {
	return b.Branch[branchID]
}

// CategoryBucket returns the popularity tier for a category, tier 0 when
// unseen.
func (b *Buckets) CategoryBucket(categoryID int64) float64 {
	return b.Category[categoryID]
}

func bucketOf(mean float64, cutoffs []float64) float64 {
	for i, cut := range cutoffs {
		if mean < cut {
			return float64(i)
		}
	}
	return float64(len(cutoffs))
}
