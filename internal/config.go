package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ChunkingConfig struct {
	Size      int    `yaml:"size"`
	Overlap   int    `yaml:"overlap"`
	Separator string `yaml:"separator"`
}

// MarshalYAML forces the separator into a double-quoted scalar. The default
// encoding folds a newline-only separator into a bare line break, which does
// not survive a save/load round trip.
func (c ChunkingConfig) MarshalYAML() (any, error) {
	return struct {
		Size      int        `yaml:"size"`
		Overlap   int        `yaml:"overlap"`
		Separator *yaml.Node `yaml:"separator"`
	}{
		Size:    c.Size,
		Overlap: c.Overlap,
		Separator: &yaml.Node{
			Kind:  yaml.ScalarNode,
			Style: yaml.DoubleQuotedStyle,
			Value: c.Separator,
		},
	}, nil
}

type EmbeddingsConfig struct {
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model,omitempty"`
	Dimension int    `yaml:"dimension"`
}

type IndexConfig struct {
	Variant string `yaml:"variant"`
	Dir     string `yaml:"dir"`
}

type RetrievalConfig struct {
	TopK             int  `yaml:"top_k"`
	MaxContextLength int  `yaml:"max_context_length"`
	PersistOnIngest  bool `yaml:"persist_on_ingest"`
}

type Config struct {
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
}

func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Size:      DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
			Separator: DefaultSeparator,
		},
		Embeddings: EmbeddingsConfig{
			Backend:   "hash",
			Dimension: DefaultDimension,
		},
		Index: IndexConfig{
			Variant: string(VariantFlat),
			Dir:     "./vector_store",
		},
		Retrieval: RetrievalConfig{
			TopK:             DefaultTopK,
			MaxContextLength: DefaultMaxContextLength,
			PersistOnIngest:  true,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = def.Chunking.Size
	}
	if c.Chunking.Overlap < 0 {
		c.Chunking.Overlap = def.Chunking.Overlap
	}
	if c.Chunking.Separator == "" {
		c.Chunking.Separator = def.Chunking.Separator
	}
	if c.Embeddings.Backend == "" {
		c.Embeddings.Backend = def.Embeddings.Backend
	}
	if c.Embeddings.Dimension <= 0 {
		c.Embeddings.Dimension = def.Embeddings.Dimension
	}
	if c.Index.Variant == "" {
		c.Index.Variant = def.Index.Variant
	}
	if c.Index.Dir == "" {
		c.Index.Dir = def.Index.Dir
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = def.Retrieval.TopK
	}
	if c.Retrieval.MaxContextLength <= 0 {
		c.Retrieval.MaxContextLength = def.Retrieval.MaxContextLength
	}
}
