package dataset

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/goldfish-inc/oceanid/apps/chartreview-corpus/internal/chartreview"
)

// ErrFoldCount is returned when the admissions cannot be split k ways.
var ErrFoldCount = errors.New("invalid fold count")

// Fold holds the admission ids of one cross-validation round.
type Fold struct {
	Index int
	Train []string
	Eval  []string
	Test  []string
}

// Admissions returns the distinct admission ids in order of first appearance.
func Admissions(examples []chartreview.TrainingExample) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, ex := range examples {
		if !seen[ex.AdmissionID] {
			seen[ex.AdmissionID] = true
			ids = append(ids, ex.AdmissionID)
		}
	}
	return ids
}

// KFold splits admission ids into k shuffled test folds. The first n%k folds
// hold one extra id. Within a round the remaining ids keep their original
// order and the last |test| of them become the eval set, so every admission
// lands in exactly one of train, eval or test.
func KFold(ids []string, k int, seed uint64) ([]Fold, error) {
	n := len(ids)
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: %d folds over %d admissions", ErrFoldCount, k, n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	folds := make([]Fold, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		testIdx := order[start : start+size]
		start += size

		inTest := make(map[int]bool, size)
		test := make([]string, 0, size)
		for _, i := range testIdx {
			inTest[i] = true
			test = append(test, ids[i])
		}

		rest := make([]string, 0, n-size)
		for i, id := range ids {
			if !inTest[i] {
				rest = append(rest, id)
			}
		}
		cut := len(rest) - size
		if cut < 0 {
			cut = 0
		}

		folds = append(folds, Fold{
			Index: f,
			Train: rest[:cut],
			Eval:  rest[cut:],
			Test:  test,
		})
	}
	return folds, nil
}

// Partition selects the examples of each split, keeping corpus order.
func (f Fold) Partition(examples []chartreview.TrainingExample) (train, eval, test []chartreview.TrainingExample) {
	member := func(ids []string) map[string]bool {
		m := make(map[string]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		return m
	}
	inTrain, inEval, inTest := member(f.Train), member(f.Eval), member(f.Test)

	for _, ex := range examples {
		switch {
		case inTrain[ex.AdmissionID]:
			train = append(train, ex)
		case inEval[ex.AdmissionID]:
			eval = append(eval, ex)
		case inTest[ex.AdmissionID]:
			test = append(test, ex)
		}
	}
	return train, eval, test
}
