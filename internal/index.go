package internal

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/phuslu/log"
)

const (
	VectorsFilename  = "vectors.gob"
	MetadataFilename = "metadata.json"

	DefaultTopK = 5
)

type IndexVariant string

const (
	// VariantFlat scans every live vector exhaustively. Correctness baseline.
	VariantFlat IndexVariant = "flat"
	// VariantAnnoy selects candidates from an annoy forest once the corpus is
	// large enough to train one, and behaves like flat below that.
	VariantAnnoy IndexVariant = "annoy"
)

func ParseIndexVariant(s string) (IndexVariant, error) {
	switch IndexVariant(s) {
	case "", VariantFlat:
		return VariantFlat, nil
	case VariantAnnoy:
		return VariantAnnoy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedVariant, s)
	}
}

type IndexStats struct {
	TotalDocuments int          `json:"total_documents"`
	IndexSize      int          `json:"index_size"`
	Dimension      int          `json:"dimension"`
	Variant        IndexVariant `json:"variant"`
	Trained        bool         `json:"trained"`
}

// ScoredDocument pairs an indexed document with its distance to a query.
type ScoredDocument struct {
	Document *IndexedDocument
	Distance float32
}

// VectorIndex stores embeddings in an append-only slot store with a
// bidirectional id<->slot table. Deletion removes a document and its mapping
// but never compacts or renumbers the store; stale slots simply stop
// resolving. Insert, Delete, Persist and Load take the write lock, Search and
// Stats the read lock.
type VectorIndex struct {
	mu        sync.RWMutex
	dimension int
	variant   IndexVariant
	dir       string
	logger    *log.Logger

	vectors   [][]float32
	documents map[string]*IndexedDocument
	idToSlot  map[string]int
	slotToID  map[int]string
	nextSlot  int

	accel *annoyAccel
}

func NewVectorIndex(dir string, dimension int, variant IndexVariant, logger *log.Logger) (*VectorIndex, error) {
	v, err := ParseIndexVariant(string(variant))
	if err != nil {
		return nil, err
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dimension)
	}
	if dir == "" {
		return nil, fmt.Errorf("index directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}

	return &VectorIndex{
		dimension: dimension,
		variant:   v,
		dir:       dir,
		logger:    logger,
		documents: make(map[string]*IndexedDocument),
		idToSlot:  make(map[string]int),
		slotToID:  make(map[int]string),
	}, nil
}

func (s *VectorIndex) Dimension() int { return s.dimension }

// Insert appends documents with their vectors. Validation is all-or-nothing:
// on any count or dimension mismatch the index is left untouched.
func (s *VectorIndex) Insert(docs []*IndexedDocument, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(docs) != len(vectors) {
		return fmt.Errorf("%w: %d documents, %d vectors", ErrDimensionMismatch, len(docs), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != s.dimension {
			return fmt.Errorf("%w: vector %d has length %d, index dimension is %d",
				ErrDimensionMismatch, i, len(vec), s.dimension)
		}
	}

	for i, doc := range docs {
		vec := make([]float32, s.dimension)
		copy(vec, vectors[i])

		// Re-inserting an id orphans its old slot; the reverse mapping is
		// dropped so the stale vector can never resolve again.
		if old, ok := s.idToSlot[doc.ID]; ok {
			delete(s.slotToID, old)
		}

		slot := s.nextSlot
		s.nextSlot++
		s.vectors = append(s.vectors, vec)

		doc.Embedding = vec
		s.documents[doc.ID] = doc
		s.idToSlot[doc.ID] = slot
		s.slotToID[slot] = doc.ID
	}

	s.refreshAccel()

	s.logger.Debug().Int("count", len(docs)).Int("total", len(s.documents)).
		Msg("inserted documents into vector index")
	return nil
}

// Search returns up to k documents ordered by ascending squared Euclidean
// distance. A metadata filter is applied after ranking, so it can shrink the
// result below k. An empty index yields an empty result, not an error.
func (s *VectorIndex) Search(query []float32, k int, filter Metadata) ([]ScoredDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has length %d, index dimension is %d",
			ErrDimensionMismatch, len(query), s.dimension)
	}
	if len(s.documents) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	var scored []ScoredDocument
	if s.accel != nil {
		scored = s.scanApprox(query, k)
	} else {
		scored = s.scanFlat(query)
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if len(scored) > k {
		scored = scored[:k]
	}

	if len(filter) == 0 {
		return scored, nil
	}
	filtered := scored[:0]
	for _, sd := range scored {
		if sd.Document.Metadata.Matches(filter) {
			filtered = append(filtered, sd)
		}
	}
	return filtered, nil
}

func (s *VectorIndex) scanFlat(query []float32) []ScoredDocument {
	scored := make([]ScoredDocument, 0, len(s.documents))
	for slot, id := range s.slotToID {
		doc, ok := s.documents[id]
		if !ok {
			continue
		}
		scored = append(scored, ScoredDocument{
			Document: doc,
			Distance: squaredL2(query, s.vectors[slot]),
		})
	}
	return scored
}

func (s *VectorIndex) scanApprox(query []float32, k int) []ScoredDocument {
	// Over-fetch by the number of orphaned slots still present in the forest,
	// so deleted candidates cannot starve the result.
	fetch := k + (s.nextSlot - len(s.slotToID))
	if fetch > s.nextSlot {
		fetch = s.nextSlot
	}
	scored := make([]ScoredDocument, 0, k)
	for _, cand := range s.accel.candidates(query, fetch) {
		slot := int(cand)
		id, ok := s.slotToID[slot]
		if !ok {
			continue
		}
		doc, ok := s.documents[id]
		if !ok {
			continue
		}
		scored = append(scored, ScoredDocument{
			Document: doc,
			Distance: squaredL2(query, s.vectors[slot]),
		})
	}
	return scored
}

// Get returns the document for id, or ErrNotFound.
func (s *VectorIndex) Get(id string) (*IndexedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Delete removes a document and both directions of its slot mapping. The
// numeric store keeps the vector; the slot just never resolves again.
func (s *VectorIndex) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return false
	}

	delete(s.documents, id)
	if slot, ok := s.idToSlot[id]; ok {
		delete(s.idToSlot, id)
		delete(s.slotToID, slot)
	}

	s.refreshAccel()

	s.logger.Debug().Str("id", id).Msg("deleted document from vector index")
	return true
}

func (s *VectorIndex) Stats() IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return IndexStats{
		TotalDocuments: len(s.documents),
		IndexSize:      s.nextSlot,
		Dimension:      s.dimension,
		Variant:        s.variant,
		Trained:        s.accel != nil,
	}
}

// refreshAccel retrains or drops the annoy forest after a mutation. Below the
// training threshold the approximate variant silently serves from the flat
// scan. Caller holds the write lock.
func (s *VectorIndex) refreshAccel() {
	if s.variant != VariantAnnoy {
		s.accel = nil
		return
	}
	if len(s.documents) < annoyTrainThreshold {
		if s.accel == nil {
			s.logger.Debug().Int("documents", len(s.documents)).
				Int("threshold", annoyTrainThreshold).
				Msg("corpus below training threshold, using flat scan")
		}
		s.accel = nil
		return
	}
	s.accel = buildAnnoyAccel(s.vectors, s.slotToID, s.dimension)
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
