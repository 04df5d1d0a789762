// Package partition divides a feature matrix and its labels into training and
// evaluation subsets. Every split is a pure function of its inputs and seed.
package partition

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Veraticus/fraudcheck/internal/common"
	"github.com/Veraticus/fraudcheck/internal/model"
)

// seedStream is the second PCG word; the caller's seed is the first.
const seedStream = 0x9e3779b97f4a7c15

// TrainTestSplit shuffles the rows with a generator seeded from seed and holds
// out ceil(n*testFraction) of them for evaluation. Calling it twice with the
// same arguments returns the same assignment.
func TrainTestSplit(features model.FeatureMatrix, labels model.LabelVector, testFraction float64, seed uint64) (model.Split, error) {
	n, err := validate(features, labels, testFraction)
	if err != nil {
		return model.Split{}, err
	}

	perm := newRand(seed).Perm(n)
	nTest := testSize(n, testFraction)

	return assemble(features, labels, perm[nTest:], perm[:nTest]), nil
}

// StratifiedSplit behaves like TrainTestSplit but holds out the same fraction of
// each class separately, so both subsets keep the class ratio up to rounding.
// A class with a single row always goes to the training subset.
func StratifiedSplit(features model.FeatureMatrix, labels model.LabelVector, testFraction float64, seed uint64) (model.Split, error) {
	n, err := validate(features, labels, testFraction)
	if err != nil {
		return model.Split{}, err
	}

	rng := newRand(seed)

	var byClass [2][]int
	for i := range n {
		byClass[labels[i]] = append(byClass[labels[i]], i)
	}

	train := make([]int, 0, n)
	test := make([]int, 0, n)
	for _, rows := range byClass {
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		if len(rows) < 2 {
			train = append(train, rows...)
			continue
		}
		k := testSize(len(rows), testFraction)
		test = append(test, rows[:k]...)
		train = append(train, rows[k:]...)
	}

	// Interleave the classes so neither subset is ordered by label.
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })

	return assemble(features, labels, train, test), nil
}

func validate(features model.FeatureMatrix, labels model.LabelVector, testFraction float64) (int, error) {
	if len(features) != len(labels) {
		return 0, fmt.Errorf("%w: %d feature rows but %d labels", common.ErrInvalidInput, len(features), len(labels))
	}
	if len(features) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 rows to split, got %d", common.ErrInvalidInput, len(features))
	}
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return 0, fmt.Errorf("%w: test fraction %v must be between 0 and 1", common.ErrInvalidInput, testFraction)
	}
	for i, l := range labels {
		if !l.Valid() {
			return 0, fmt.Errorf("%w: label at row %d is %d, want 0 or 1", common.ErrInvalidInput, i, int(l))
		}
	}
	return len(features), nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seedStream))
}

// testSize rounds n*fraction up, leaving at least one row on each side.
func testSize(n int, fraction float64) int {
	// The epsilon keeps 10*0.7 from rounding up to 8.
	k := int(math.Ceil(float64(n)*fraction - 1e-9))
	if k < 1 {
		k = 1
	}
	if k > n-1 {
		k = n - 1
	}
	return k
}

func assemble(features model.FeatureMatrix, labels model.LabelVector, train, test []int) model.Split {
	split := model.Split{
		TrainFeatures: make(model.FeatureMatrix, len(train)),
		TrainLabels:   make(model.LabelVector, len(train)),
		TrainIndex:    train,
		TestFeatures:  make(model.FeatureMatrix, len(test)),
		TestLabels:    make(model.LabelVector, len(test)),
		TestIndex:     test,
	}
	for i, row := range train {
		split.TrainFeatures[i] = features[row]
		split.TrainLabels[i] = labels[row]
	}
	for i, row := range test {
		split.TestFeatures[i] = features[row]
		split.TestLabels[i] = labels[row]
	}
	return split
}
