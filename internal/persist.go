package internal

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Persistence layout: two artifacts under the index directory. vectors.gob
// carries the raw slot store, metadata.json everything needed to validate and
// rebuild the mappings. Formats are local to this implementation; no
// cross-version compatibility is promised.

type vectorsArtifact struct {
	Dimension int
	Vectors   [][]float32
}

type persistedDocument struct {
	Content   string    `json:"content"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type metadataArtifact struct {
	Documents map[string]persistedDocument `json:"documents"`
	IDToSlot  map[string]int               `json:"id_to_slot"`
	SlotToID  map[int]string               `json:"slot_to_id"`
	NextSlot  int                          `json:"next_slot"`
	Dimension int                          `json:"dimension"`
	Variant   IndexVariant                 `json:"variant"`
}

// Persist writes both artifacts, each through a temp file and rename. Load
// cross-validates them, so a crash between the two writes degrades to a fresh
// index instead of serving diverged state.
func (s *VectorIndex) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vectorsArtifact{
		Dimension: s.dimension,
		Vectors:   s.vectors,
	}); err != nil {
		return fmt.Errorf("encode vectors: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, VectorsFilename), buf.Bytes()); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	meta := metadataArtifact{
		Documents: make(map[string]persistedDocument, len(s.documents)),
		IDToSlot:  s.idToSlot,
		SlotToID:  s.slotToID,
		NextSlot:  s.nextSlot,
		Dimension: s.dimension,
		Variant:   s.variant,
	}
	for id, doc := range s.documents {
		meta.Documents[id] = persistedDocument{
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			CreatedAt: doc.CreatedAt,
		}
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, MetadataFilename), data); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Info().Str("dir", s.dir).Int("documents", len(s.documents)).
		Msg("persisted vector index")
	return nil
}

// Load restores the index from its directory. Missing or corrupt artifacts
// are not fatal: the index starts empty with a logged warning, because a lost
// cache is recoverable by re-ingestion.
func (s *VectorIndex) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metaPath := filepath.Join(s.dir, MetadataFilename)
	data, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		s.logger.Debug().Str("dir", s.dir).Msg("no persisted index, starting empty")
		return nil
	}
	if err != nil {
		s.degrade(err, "unreadable metadata artifact")
		return nil
	}

	var meta metadataArtifact
	if err := json.Unmarshal(data, &meta); err != nil {
		s.degrade(err, "corrupt metadata artifact")
		return nil
	}
	// Absent tables decode as nil; installing nil maps would break the next
	// insert.
	if meta.Documents == nil {
		meta.Documents = make(map[string]persistedDocument)
	}
	if meta.IDToSlot == nil {
		meta.IDToSlot = make(map[string]int)
	}
	if meta.SlotToID == nil {
		meta.SlotToID = make(map[int]string)
	}

	vecPath := filepath.Join(s.dir, VectorsFilename)
	vecData, err := os.ReadFile(vecPath)
	if err != nil {
		s.degrade(err, "missing or unreadable vectors artifact")
		return nil
	}
	var vecs vectorsArtifact
	if err := gob.NewDecoder(bytes.NewReader(vecData)).Decode(&vecs); err != nil {
		s.degrade(err, "corrupt vectors artifact")
		return nil
	}

	if err := validateArtifacts(&meta, &vecs, s.dimension, s.variant); err != nil {
		s.degrade(err, "inconsistent persisted state")
		return nil
	}

	s.vectors = vecs.Vectors
	s.nextSlot = meta.NextSlot
	s.idToSlot = meta.IDToSlot
	s.slotToID = meta.SlotToID
	s.documents = make(map[string]*IndexedDocument, len(meta.Documents))
	for id, pd := range meta.Documents {
		doc := &IndexedDocument{
			ID:        id,
			Content:   pd.Content,
			Metadata:  pd.Metadata,
			CreatedAt: pd.CreatedAt,
		}
		if slot, ok := s.idToSlot[id]; ok {
			doc.Embedding = s.vectors[slot]
		}
		s.documents[id] = doc
	}

	s.refreshAccel()

	s.logger.Info().Str("dir", s.dir).Int("documents", len(s.documents)).
		Msg("loaded vector index")
	return nil
}

func validateArtifacts(meta *metadataArtifact, vecs *vectorsArtifact, dimension int, variant IndexVariant) error {
	if meta.Dimension != dimension {
		return fmt.Errorf("persisted dimension %d, index dimension %d", meta.Dimension, dimension)
	}
	if meta.Variant != variant {
		return fmt.Errorf("persisted variant %q, index variant %q", meta.Variant, variant)
	}
	if vecs.Dimension != dimension {
		return fmt.Errorf("vectors artifact dimension %d, index dimension %d", vecs.Dimension, dimension)
	}
	if len(vecs.Vectors) != meta.NextSlot {
		return fmt.Errorf("vectors artifact has %d slots, metadata expects %d", len(vecs.Vectors), meta.NextSlot)
	}
	for id, slot := range meta.IDToSlot {
		if slot < 0 || slot >= meta.NextSlot {
			return fmt.Errorf("document %s maps to out-of-range slot %d", id, slot)
		}
		if meta.SlotToID[slot] != id {
			return fmt.Errorf("slot table disagrees for document %s", id)
		}
		if _, ok := meta.Documents[id]; !ok {
			return fmt.Errorf("mapped document %s has no record", id)
		}
	}
	for slot, id := range meta.SlotToID {
		if meta.IDToSlot[id] != slot {
			return fmt.Errorf("id table disagrees for slot %d", slot)
		}
	}
	for id := range meta.Documents {
		if _, ok := meta.IDToSlot[id]; !ok {
			return fmt.Errorf("document %s has no slot mapping", id)
		}
	}
	for _, vec := range vecs.Vectors {
		if len(vec) != dimension {
			return fmt.Errorf("stored vector has length %d, index dimension %d", len(vec), dimension)
		}
	}
	return nil
}

// degrade resets to an empty index after a failed load. Caller holds the
// write lock.
func (s *VectorIndex) degrade(err error, reason string) {
	s.logger.Warn().Err(err).Str("dir", s.dir).
		Msgf("could not load persisted index (%s), starting empty", reason)

	s.vectors = nil
	s.documents = make(map[string]*IndexedDocument)
	s.idToSlot = make(map[string]int)
	s.slotToID = make(map[int]string)
	s.nextSlot = 0
	s.accel = nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
