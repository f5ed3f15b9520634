package dataset

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles rows with a seeded permutation and cuts off
// ceil(testSize*n) of them as the test partition. The same seed and input
// always produce the same partitions.
func TrainTestSplit(f *Frame, testSize float64, seed int64) (train, test *Frame, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v must be in (0, 1)", testSize)
	}
	n := f.Len()
	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return nil, nil, fmt.Errorf("cannot split %d rows with test size %v", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return f.Take(perm[:nTrain]), f.Take(perm[nTrain:]), nil
}
