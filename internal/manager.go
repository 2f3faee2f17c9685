package internal

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/phuslu/log"
)

// IndexManager drives the retrieval pipeline: chunk -> embed -> insert on
// ingest, embed -> search on query. It owns the single embedding-dimension
// contract across both paths.
type IndexManager struct {
	splitter  *Splitter
	embedder  Embedder
	index     *VectorIndex
	assembler *ContextAssembler
	logger    *log.Logger

	persistOnIngest bool
}

type ManagerOption func(*IndexManager)

// WithPersistOnIngest makes every successful ingest persist the index, the
// reference behavior. Persistence failures on this path are logged, not
// returned: the ingest itself already succeeded.
func WithPersistOnIngest(on bool) ManagerOption {
	return func(m *IndexManager) { m.persistOnIngest = on }
}

func WithAssembler(a *ContextAssembler) ManagerOption {
	return func(m *IndexManager) { m.assembler = a }
}

func WithManagerLogger(logger *log.Logger) ManagerOption {
	return func(m *IndexManager) { m.logger = logger }
}

func NewIndexManager(splitter *Splitter, embedder Embedder, index *VectorIndex, opts ...ManagerOption) (*IndexManager, error) {
	if splitter == nil || embedder == nil || index == nil {
		return nil, fmt.Errorf("splitter, embedder and index are required")
	}
	if embedder.Dimension() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder produces %d, index expects %d",
			ErrDimensionMismatch, embedder.Dimension(), index.Dimension())
	}

	m := &IndexManager{
		splitter:  splitter,
		embedder:  embedder,
		index:     index,
		assembler: NewContextAssembler(),
		logger:    &log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *IndexManager) Index() *VectorIndex { return m.index }

type IngestResult struct {
	Source          string   `json:"source"`
	ChunksCreated   int      `json:"chunks_created"`
	DocumentIDs     []string `json:"document_ids"`
	TotalCharacters int      `json:"total_characters"`
}

// Ingest chunks text, embeds every chunk and inserts the results. Zero usable
// chunks is a caller error: it usually means an upstream extraction produced
// nothing.
func (m *IndexManager) Ingest(ctx context.Context, text, source string, metadata Metadata) (*IngestResult, error) {
	chunks := m.splitter.ChunkText(text, source, metadata)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: source %q", ErrEmptyContent, source)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}

	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	docs := make([]*IndexedDocument, len(chunks))
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		provenance := Metadata{
			"source":       String(ch.Source),
			"chunk_index":  Number(float64(ch.ChunkIndex)),
			"total_chunks": Number(float64(len(chunks))),
		}
		docs[i] = &IndexedDocument{
			ID:        ch.ID,
			Content:   ch.Content,
			Metadata:  ch.Metadata.Merge(provenance),
			CreatedAt: ch.CreatedAt,
		}
		ids[i] = ch.ID
	}

	if err := m.index.Insert(docs, vectors); err != nil {
		return nil, err
	}

	if m.persistOnIngest {
		if err := m.index.Persist(); err != nil {
			m.logger.Warn().Err(err).Str("source", source).
				Msg("could not persist index after ingest")
		}
	}

	m.logger.Info().Str("source", source).Int("chunks", len(chunks)).
		Msg("ingested text")

	return &IngestResult{
		Source:          source,
		ChunksCreated:   len(chunks),
		DocumentIDs:     ids,
		TotalCharacters: len(text),
	}, nil
}

// Query embeds the query text and returns ranked hits. Rank is 1-based in
// result order. k <= 0 falls back to the default of 5.
func (m *IndexManager) Query(ctx context.Context, query string, k int, filter Metadata) ([]SearchHit, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := m.index.Search(vec, k, filter)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, len(scored))
	for i, sd := range scored {
		hits[i] = SearchHit{
			ID:       sd.Document.ID,
			Content:  sd.Document.Content,
			Distance: sd.Distance,
			Rank:     i + 1,
		}
	}
	return hits, nil
}

// RetrieveContext runs Query and assembles the hits into a bounded context
// block. maxLen <= 0 uses the assembler's configured budget.
func (m *IndexManager) RetrieveContext(ctx context.Context, query string, k int, filter Metadata, maxLen int) (ContextBlock, error) {
	hits, err := m.Query(ctx, query, k, filter)
	if err != nil {
		return ContextBlock{}, err
	}
	if maxLen <= 0 {
		maxLen = m.assembler.maxContextLength
	}
	return m.assembler.Assemble(hits, maxLen), nil
}

type ManagerStats struct {
	Index            IndexStats `json:"index"`
	ChunkSize        int        `json:"chunk_size"`
	ChunkOverlap     int        `json:"chunk_overlap"`
	MaxContextLength int        `json:"max_context_length"`
}

func (m *IndexManager) Stats() ManagerStats {
	return ManagerStats{
		Index:            m.index.Stats(),
		ChunkSize:        m.splitter.chunkSize,
		ChunkOverlap:     m.splitter.overlap,
		MaxContextLength: m.assembler.maxContextLength,
	}
}

// NewManagerFromConfig wires splitter, embedder, index and assembler from
// config and loads any persisted index state.
func NewManagerFromConfig(cfg *Config, logger *log.Logger) (*IndexManager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = &log.DefaultLogger
	}

	embedder, err := NewEmbedderFromConfig(cfg.Embeddings)
	if err != nil {
		return nil, err
	}

	index, err := NewVectorIndex(cfg.Index.Dir, embedder.Dimension(), IndexVariant(cfg.Index.Variant), logger)
	if err != nil {
		return nil, err
	}
	if err := index.Load(); err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	splitter := NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.Separator)

	assembler := NewContextAssembler(
		WithMaxContextLength(cfg.Retrieval.MaxContextLength),
	)

	return NewIndexManager(splitter, embedder, index,
		WithAssembler(assembler),
		WithManagerLogger(logger),
		WithPersistOnIngest(cfg.Retrieval.PersistOnIngest),
	)
}

// NewEmbedderFromConfig builds the configured embedder backend.
func NewEmbedderFromConfig(cfg EmbeddingsConfig) (Embedder, error) {
	switch cfg.Backend {
	case "", "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	case "openai":
		return NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), cfg.Model)
	default:
		return nil, fmt.Errorf("unknown embeddings backend %q", cfg.Backend)
	}
}

// Process-wide default instance: lazily created on first use, resettable for
// tests. Library paths always take explicit managers; this exists for
// single-process callers.
var (
	defaultMu      sync.Mutex
	defaultManager *IndexManager
)

func Default(cfg *Config, logger *log.Logger) (*IndexManager, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultManager != nil {
		return defaultManager, nil
	}

	m, err := NewManagerFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	defaultManager = m
	return m, nil
}

func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultManager = nil
}
