package pipeline

import (
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// part is one buffered passage awaiting chunk emission
type part struct {
	text   string
	orders []int
	page   *int
	seeded bool // overlap carry-over from the previous chunk
}

// Segmenter accumulates normalized elements into token-budgeted chunks.
// It flushes on structural headings, prefixes label callouts and captions
// onto the following passage, and when the size budget is hit either
// splits at the lowest-similarity topic boundary (when an embedding
// function is available) or falls back to a plain size flush with a
// verbatim word overlap carried into the next chunk.
type Segmenter struct {
	cfg   model.SegmenterConfig
	embed EmbedBatchFunc
	log   *slog.Logger
}

// NewSegmenter creates a segmenter. The embedding function is optional;
// without it every oversized buffer is flushed by size alone.
func NewSegmenter(cfg model.SegmenterConfig, embed EmbedBatchFunc, log *slog.Logger) *Segmenter {
	if log == nil {
		log = slog.Default()
	}
	return &Segmenter{cfg: cfg, embed: embed, log: log}
}

// Segment converts raw elements into chunks: normalization, section path
// tracking, table decomposition and the accumulate/flush state machine.
// It never fails; malformed input is filtered and embedding errors degrade
// to size-based splitting.
func (s *Segmenter) Segment(elements []model.Element) []model.Chunk {
	normalized := Normalize(elements)

	var chunks []model.Chunk
	var buffer []part
	builder := NewSectionPathBuilder()
	pendingLabel := ""

	flush := func(withOverlap bool) {
		emitted, seed := s.emit(buffer, builder.Current(), withOverlap)
		if emitted != nil {
			chunks = append(chunks, *emitted)
		}
		buffer = buffer[:0]
		if seed != nil {
			buffer = append(buffer, *seed)
		}
	}

	for _, el := range normalized {
		text := el.Text

		// Tables bypass the text buffer entirely.
		if el.Category == model.CategoryTable || el.Type == model.ElementTypeTable {
			flush(false)
			pendingLabel = ""
			chunks = append(chunks, TableToRowChunks(text, builder.Current(), el.Page, el.SourceOrders[0], true)...)
			continue
		}

		if el.IsHeadingType() {
			switch {
			case IsBoilerplateHeading(text):
				// institutional noise, not structure
				continue
			case IsStructuralHeading(text):
				flush(false)
				pendingLabel = ""
				builder.Push(text)
				continue
			case IsLabelHeading(text):
				flush(false)
				pendingLabel = text
				continue
			}
			// demoted fragment falls through as ordinary text
		}

		if el.Type == model.ElementTypeFigureCaption {
			flush(false)
			pendingLabel = text
			continue
		}

		if el.Category != model.CategoryText || isTrivialText(text) {
			flush(false)
			continue
		}

		if pendingLabel != "" {
			text = strings.TrimRight(pendingLabel, ":") + ": " + text
			pendingLabel = ""
		}

		buffer = append(buffer, part{text: text, orders: el.SourceOrders, page: el.Page})

		for s.bufferTokens(buffer) >= s.maxTokens() {
			before := len(chunks)
			split, rest := s.splitBuffer(buffer, builder.Current())
			if split != nil {
				chunks = append(chunks, *split)
			}
			buffer = rest
			if len(chunks) == before {
				break
			}
		}
	}

	flushFinal := s.emitFinal(buffer, builder.Current())
	if flushFinal != nil {
		chunks = append(chunks, *flushFinal)
	}

	return chunks
}

// maxTokens is the flush threshold in approximate tokens
func (s *Segmenter) maxTokens() float64 {
	return float64(s.cfg.MaxWords) * s.cfg.TokensPerWord
}

// minTokens is the smallest acceptable first sub-chunk after a semantic split
func (s *Segmenter) minTokens() float64 {
	return float64(s.cfg.MinWords) * s.cfg.TokensPerWord
}

func (s *Segmenter) bufferTokens(buffer []part) float64 {
	words := 0
	for _, p := range buffer {
		words += len(strings.Fields(p.text))
	}
	return float64(words) * s.cfg.TokensPerWord
}

// splitBuffer handles an oversized buffer: first a semantic split at the
// lowest adjacent-similarity boundary, otherwise a plain size flush whose
// overlap tail seeds the remainder.
func (s *Segmenter) splitBuffer(buffer []part, path string) (*model.Chunk, []part) {
	if s.embed != nil && len(buffer) >= 2 {
		if chunk, rest, ok := s.semanticSplit(buffer, path); ok {
			return chunk, rest
		}
	}

	chunk, seed := s.emit(buffer, path, true)
	var rest []part
	if seed != nil {
		rest = []part{*seed}
	}
	return chunk, rest
}

// semanticSplit embeds each buffered part, finds the adjacent pair with the
// lowest cosine similarity and cuts there, provided the first side still
// meets the minimum size. Embedding failures report !ok so the caller can
// fall back to the size flush.
func (s *Segmenter) semanticSplit(buffer []part, path string) (*model.Chunk, []part, bool) {
	texts := make([]string, len(buffer))
	for i, p := range buffer {
		texts[i] = p.text
	}

	vectors, err := s.embed(texts)
	if err != nil || len(vectors) != len(buffer) {
		s.log.Warn("semantic split unavailable, falling back to size flush", slog.Any("error", err))
		return nil, nil, false
	}

	cut := -1
	lowest := math.MaxFloat64
	for i := 0; i < len(vectors)-1; i++ {
		sim := float64(cosineSimilarity(vectors[i], vectors[i+1]))
		if sim < lowest {
			lowest = sim
			cut = i + 1
		}
	}
	if cut <= 0 {
		return nil, nil, false
	}

	first := buffer[:cut]
	if s.bufferTokens(first) < s.minTokens() {
		return nil, nil, false
	}

	chunk, _ := s.emit(first, path, false)
	rest := make([]part, len(buffer)-cut)
	copy(rest, buffer[cut:])
	return chunk, rest, true
}

// emit builds a chunk from the buffered parts. With withOverlap set, the
// last OverlapWords words of the emitted text are returned as a seed part
// for the next buffer, keeping the originating order of the tail.
func (s *Segmenter) emit(buffer []part, path string, withOverlap bool) (*model.Chunk, *part) {
	if len(buffer) == 0 {
		return nil, nil
	}

	// An overlap seed alone is continuation text, not a chunk.
	if len(buffer) == 1 && buffer[0].seeded {
		return nil, nil
	}

	texts := make([]string, len(buffer))
	for i, p := range buffer {
		texts[i] = p.text
	}
	body := strings.Join(texts, "\n\n")

	text := body
	if path != "" {
		text = "Path: " + path + "\n\n" + body
	}

	chunk := &model.Chunk{
		Text:         text,
		SectionPath:  path,
		ChunkType:    model.ChunkTypeText,
		PageStart:    firstPage(buffer),
		PageEnd:      lastPage(buffer),
		SourceOrders: collectOrders(buffer),
	}

	var seed *part
	if withOverlap {
		words := strings.Fields(body)
		if len(words) > s.cfg.OverlapWords {
			tail := buffer[len(buffer)-1]
			overlap := strings.Join(words[len(words)-s.cfg.OverlapWords:], " ")
			lastOrder := tail.orders[len(tail.orders)-1]
			seed = &part{text: overlap, orders: []int{lastOrder}, page: tail.page, seeded: true}
		}
	}

	return chunk, seed
}

// emitFinal flushes the remaining buffer at end of stream, with no
// trailing overlap
func (s *Segmenter) emitFinal(buffer []part, path string) *model.Chunk {
	chunk, _ := s.emit(buffer, path, false)
	return chunk
}

// isTrivialText reports whether text reduces to at most one meaningful
// character once decorative glyphs are stripped
func isTrivialText(text string) bool {
	meaningful := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			meaningful++
			if meaningful > 1 {
				return false
			}
		}
	}
	return true
}

func firstPage(buffer []part) *int {
	for _, p := range buffer {
		if p.page != nil {
			return p.page
		}
	}
	return nil
}

func lastPage(buffer []part) *int {
	for i := len(buffer) - 1; i >= 0; i-- {
		if buffer[i].page != nil {
			return buffer[i].page
		}
	}
	return nil
}

func collectOrders(buffer []part) []int64 {
	var orders []int64
	seen := make(map[int]bool)
	for _, p := range buffer {
		for _, o := range p.orders {
			if !seen[o] {
				seen[o] = true
				orders = append(orders, int64(o))
			}
		}
	}
	return orders
}

// cosineSimilarity calculates the cosine similarity between two embedding
// vectors. Mismatched dimensions or a zero-norm vector yield 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
