package documents

import (
	"strings"
	"unicode/utf8"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter splits text recursively on paragraph, line, word and character
// boundaries into pieces of at most ChunkSize characters, carrying up to
// ChunkOverlap characters of trailing context into the next piece.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// PageChunk is a piece of text and the page it came from.
type PageChunk struct {
	Text string
	Page int
}

// NewSplitter creates a splitter with the default separators
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   defaultSeparators,
	}
}

// SplitPages splits every page independently, keeping the page number.
func (s *Splitter) SplitPages(pages []Page) []PageChunk {
	var out []PageChunk
	for _, p := range pages {
		for _, text := range s.Split(p.Text) {
			out = append(out, PageChunk{Text: text, Page: p.Number})
		}
	}
	return out
}

// Split splits text into chunks
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitOn(text, separator) {
		if length(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge greedily packs small pieces into chunks, then drops leading pieces
// until what remains fits within the overlap.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := length(separator)
	var (
		chunks  []string
		current []string
		total   int
	)

	joined := func() {
		if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
			chunks = append(chunks, doc)
		}
	}

	for _, piece := range pieces {
		n := length(piece)
		if total+n+gap(current, sepLen) > s.ChunkSize && len(current) > 0 {
			joined()
			for total > s.ChunkOverlap || (total > 0 && total+n+gap(current, sepLen) > s.ChunkSize) {
				total -= length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}
	joined()
	return chunks
}

func gap(current []string, sepLen int) int {
	if len(current) > 0 {
		return sepLen
	}
	return 0
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for _, p := range strings.Split(text, separator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
