package internal

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxContextLength = 4000

	// A partial excerpt below this many characters is not worth including.
	minPartialLength = 100
)

// ContextAssembler renders ranked hits into a labeled context block under a
// character budget, with parallel source attribution for every fully included
// hit.
type ContextAssembler struct {
	maxContextLength int
	scoreThreshold   float32
	thresholdEnabled bool
}

type AssemblerOption func(*ContextAssembler)

func WithMaxContextLength(n int) AssemblerOption {
	return func(a *ContextAssembler) {
		if n > 0 {
			a.maxContextLength = n
		}
	}
}

// WithScoreThreshold drops hits whose distance exceeds max before assembly.
// Off unless explicitly configured.
func WithScoreThreshold(max float32) AssemblerOption {
	return func(a *ContextAssembler) {
		a.scoreThreshold = max
		a.thresholdEnabled = true
	}
}

func NewContextAssembler(opts ...AssemblerOption) *ContextAssembler {
	a := &ContextAssembler{maxContextLength: DefaultMaxContextLength}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ContextAssembler) MaxContextLength() int { return a.maxContextLength }

// Assemble consumes hits in the given order, appending "[Document N]: ..."
// blocks until the budget runs out. The last hit may be included as a
// truncated prefix if enough budget remains; a truncated hit is rendered but
// never attributed as a source, so citation consumers only ever see whole
// excerpts.
func (a *ContextAssembler) Assemble(hits []SearchHit, maxLen int) ContextBlock {
	if len(hits) == 0 {
		return ContextBlock{}
	}
	if maxLen < 0 {
		maxLen = 0
	}

	if a.thresholdEnabled {
		kept := make([]SearchHit, 0, len(hits))
		for _, hit := range hits {
			if hit.Distance <= a.scoreThreshold {
				kept = append(kept, hit)
			}
		}
		hits = kept
	}

	var (
		parts   []string
		sources []Source
		total   int
	)

	for i, hit := range hits {
		if total+len(hit.Content) > maxLen {
			remaining := maxLen - total
			if remaining > minPartialLength {
				cut := remaining - 3
				// Never truncate inside a multi-byte rune.
				for cut > 0 && !utf8.RuneStart(hit.Content[cut]) {
					cut--
				}
				partial := hit.Content[:cut] + "..."
				parts = append(parts, fmt.Sprintf("[Document %d]: %s", i+1, partial))
			}
			break
		}

		parts = append(parts, fmt.Sprintf("[Document %d]: %s", i+1, hit.Content))
		total += len(hit.Content)

		sources = append(sources, Source{
			Content: hit.Content,
			Score:   hit.Distance,
			Rank:    hit.Rank,
		})
	}

	return ContextBlock{
		Text:    strings.Join(parts, "\n\n"),
		Sources: sources,
	}
}
