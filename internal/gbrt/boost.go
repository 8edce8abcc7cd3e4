package gbrt

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// Params are the ensemble hyperparameters. Zero values are invalid; callers
// supply the configured stage parameters.
type Params struct {
	NumTrees            int     `json:"num_trees"`
	MaxDepth            int     `json:"max_depth"`
	LearningRate        float64 `json:"learning_rate"`
	MinChildWeight      float64 `json:"min_child_weight"`
	Subsample           float64 `json:"subsample"`
	ColSampleByTree     float64 `json:"colsample_bytree"`
	Alpha               float64 `json:"reg_alpha"`
	Lambda              float64 `json:"reg_lambda"`
	Seed                int64   `json:"seed"`
	EarlyStoppingRounds int     `json:"early_stopping_rounds"`
}

// Model is a fitted ensemble. Immutable after training; concurrent Predict
// calls are safe.
type Model struct {
	BaseScore     float64 `json:"base_score"`
	LearningRate  float64 `json:"learning_rate"`
	NumFeatures   int     `json:"num_features"`
	BestIteration int     `json:"best_iteration"`
	Trees         []Tree  `json:"trees"`
}

// Train fits the ensemble to x/y. When a validation set is given, training
// early-stops after EarlyStoppingRounds rounds without RMSE improvement and
// the ensemble is truncated to its best iteration.
func Train(x [][]float64, y []float64, valX [][]float64, valY []float64, p Params) (*Model, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("gbrt: empty training set")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("gbrt: feature/target length mismatch: %d vs %d", len(x), len(y))
	}
	numFeatures := len(x[0])
	if numFeatures == 0 {
		return nil, fmt.Errorf("gbrt: zero-width feature matrix")
	}

	base := mean(y)
	model := &Model{
		BaseScore:    base,
		LearningRate: p.LearningRate,
		NumFeatures:  numFeatures,
		Trees:        make([]Tree, 0, p.NumTrees),
	}

	preds := make([]float64, len(y))
	valPreds := make([]float64, len(valY))
	for i := range preds {
		preds[i] = base
	}
	for i := range valPreds {
		valPreds[i] = base
	}

	rng := rand.New(rand.NewSource(p.Seed))
	grad := make([]float64, len(y))
	builder := &treeBuilder{
		x:        x,
		grad:     grad,
		maxDepth: p.MaxDepth,
		minChild: p.MinChildWeight,
		alpha:    p.Alpha,
		lambda:   p.Lambda,
	}

	bestRMSE := math.Inf(1)
	bestIter := 0
	roundsSinceBest := 0

	for round := 0; round < p.NumTrees; round++ {
		for i := range y {
			grad[i] = y[i] - preds[i]
		}

		builder.features = sampleColumns(rng, numFeatures, p.ColSampleByTree)
		samples := sampleRows(rng, len(y), p.Subsample)
		tree := builder.build(samples)
		model.Trees = append(model.Trees, tree)

		for i := range preds {
			preds[i] += p.LearningRate * tree.Predict(x[i])
		}

		if len(valY) == 0 {
			bestIter = round + 1
			continue
		}
		for i := range valPreds {
			valPreds[i] += p.LearningRate * tree.Predict(valX[i])
		}
		cur := rmse(valY, valPreds)
		if cur < bestRMSE {
			bestRMSE = cur
			bestIter = round + 1
			roundsSinceBest = 0
		} else {
			roundsSinceBest++
			if p.EarlyStoppingRounds > 0 && roundsSinceBest >= p.EarlyStoppingRounds {
				break
			}
		}
	}

	model.Trees = model.Trees[:bestIter]
	model.BestIteration = bestIter
	log.Debug().
		Int("trees", bestIter).
		Float64("val_rmse", bestRMSE).
		Msg("gbrt ensemble fitted")
	return model, nil
}

// Predict returns the ensemble output for one feature vector.
func (m *Model) Predict(x []float64) float64 {
	if len(x) != m.NumFeatures {
		return m.BaseScore
	}
	out := m.BaseScore
	for i := range m.Trees {
		out += m.LearningRate * m.Trees[i].Predict(x)
	}
	return out
}

// Importance sums split gain per feature over the kept trees, normalized to
// sum to 1 when any split exists.
func (m *Model) Importance() []float64 {
	gains := make([]float64, m.NumFeatures)
	total := 0.0
	for _, tree := range m.Trees {
		for _, node := range tree.Nodes {
			if !node.Leaf {
				gains[node.Feature] += node.Gain
				total += node.Gain
			}
		}
	}
	if total > 0 {
		for i := range gains {
			gains[i] /= total
		}
	}
	return gains
}

func sampleRows(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Round(float64(n) * fraction))
	if k >= n || k <= 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rng.Perm(n)[:k]
	return perm
}

func sampleColumns(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Round(float64(n) * fraction))
	if k >= n || k <= 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return rng.Perm(n)[:k]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func rmse(y, preds []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	ss := 0.0
	for i := range y {
		d := y[i] - preds[i]
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(y)))
}
