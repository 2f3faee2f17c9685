package internal

import (
	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	// Minimum live documents before the approximate variant trains a forest.
	// Below this the flat scan answers searches instead.
	annoyTrainThreshold = 100

	annoyTreeCount = 10

	// Nodes inspected per requested neighbor. The library's own default
	// budget visits too few nodes to reliably surface an exact match.
	annoySearchFactor = 32
)

// annoyAccel is the trained forest behind the approximate index variant. It
// only selects candidate slots; the caller re-scores them with exact squared
// L2 so both variants report the same metric.
type annoyAccel struct {
	idx interfaces.AnnoyIndex[float32, uint32]
}

func buildAnnoyAccel(vectors [][]float32, slotToID map[int]string, dimension int) *annoyAccel {
	idx := builder.Index[float32, uint32]().
		AngularDistance(dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	for slot := range slotToID {
		idx.AddItem(uint32(slot), vectors[slot])
	}
	idx.Build(annoyTreeCount, -1)

	return &annoyAccel{idx: idx}
}

func (a *annoyAccel) candidates(query []float32, n int) []uint32 {
	searchCtx := a.idx.CreateContext()
	ids, _ := a.idx.GetNnsByVector(query, n, annoyTreeCount*annoySearchFactor*n, searchCtx)
	return ids
}
