// Package chunker splits raw document text into overlapping, token-bounded
// chunks. Chunking is purely functional: no side effects, deterministic
// output for a given input.
package chunker

import (
	"regexp"
	"strings"

	"github.com/matkb-cloud/matkb/internal/domain"
)

// charsPerToken is the fixed character-to-token ratio applied uniformly to
// mixed-script text. Mirrors the estimator the embeddings were built with.
const charsPerToken = 0.75

// boundaryZone is the fraction of an overlap window that must precede a
// paragraph or sentence boundary for the window to be trimmed at it.
// Boundaries too close to the window start would leave almost no overlap.
const boundaryZone = 0.3

var paragraphSep = regexp.MustCompile(`\n[ \t]*\n+`)

// sentence terminators, Latin and CJK.
var sentenceEnd = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// Chunker holds the size parameters, all in estimated tokens.
type Chunker struct {
	chunkSize    int
	overlapSize  int
	minChunkSize int
}

// New creates a Chunker. Sizes are in estimated tokens.
func New(chunkSize, overlapSize, minChunkSize int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		overlapSize:  overlapSize,
		minChunkSize: minChunkSize,
	}
}

// EstimateTokens estimates the token count of text from its rune length.
// Non-negative and deterministic.
func EstimateTokens(text string) int {
	return int(float64(len([]rune(text))) * charsPerToken)
}

// Chunk splits text into overlapping chunks for docID. Paragraphs are
// accumulated until the next one would push the buffer past the chunk
// size; the buffer is then emitted and the next buffer is seeded with an
// overlap window drawn from the text preceding the cut. A paragraph that
// alone exceeds the chunk size is folded in at sentence granularity with
// the identical accumulate/emit/overlap logic. The trailing buffer is
// emitted only if it reaches the minimum chunk size; shorter remainders
// are discarded. Empty or whitespace-only text yields no chunks.
func (c *Chunker) Chunk(text, docID string) []domain.Chunk {
	src := []rune(text)
	st := &state{chunker: c, src: src, docID: docID}

	cursor := 0
	for _, para := range splitParagraphs(text) {
		pos := indexRunes(src, []rune(para), cursor)
		if pos < 0 {
			pos = cursor
		}
		cursor = pos + len([]rune(para))

		if EstimateTokens(para) > c.chunkSize {
			sentCursor := pos
			for _, sent := range splitSentences(para) {
				spos := indexRunes(src, []rune(sent), sentCursor)
				if spos < 0 {
					spos = sentCursor
				}
				sentCursor = spos + len([]rune(sent))
				st.add(sent, spos)
			}
			continue
		}
		st.add(para, pos)
	}

	if st.bufTokens >= c.minChunkSize && len(st.buf) > 0 {
		st.emit()
	}
	return st.chunks
}

// state carries the running buffer through one Chunk call.
type state struct {
	chunker *Chunker
	src     []rune
	docID   string

	chunks    []domain.Chunk
	buf       []string
	bufTokens int
	bufStart  int
	prevEnd   int
}

// add folds one unit (paragraph or sentence) into the buffer, emitting and
// re-seeding with an overlap window when the unit would overflow it.
func (s *state) add(unit string, pos int) {
	tokens := EstimateTokens(unit)

	if len(s.buf) > 0 && s.bufTokens+tokens > s.chunker.chunkSize {
		s.emit()
		if overlap, start := s.overlapWindow(); overlap != "" {
			s.buf = []string{overlap}
			s.bufTokens = EstimateTokens(overlap)
			s.bufStart = start
		}
	}

	if len(s.buf) == 0 {
		s.bufStart = pos
	}
	s.buf = append(s.buf, unit)
	s.bufTokens += tokens
}

func (s *state) emit() {
	text := strings.Join(s.buf, "\n\n")
	end := s.bufStart + len([]rune(text))
	s.chunks = append(s.chunks, domain.Chunk{
		ID:              domain.ChunkID(s.docID, len(s.chunks)),
		DocID:           s.docID,
		Index:           len(s.chunks),
		Text:            text,
		StartOffset:     s.bufStart,
		EndOffset:       end,
		EstimatedTokens: EstimateTokens(text),
	})
	s.prevEnd = end
	s.buf = nil
	s.bufTokens = 0
}

// overlapWindow returns the overlap text seeding the next buffer: the last
// overlapSize-tokens'-worth of characters before the previous chunk's end,
// trimmed to the last paragraph boundary inside the final 70% of the
// window, then to the last sentence boundary under the same rule, and
// used raw when neither exists.
func (s *state) overlapWindow() (string, int) {
	if s.chunker.overlapSize <= 0 {
		return "", 0
	}
	end := s.prevEnd
	if end > len(s.src) {
		end = len(s.src)
	}
	width := int(float64(s.chunker.overlapSize) / charsPerToken)
	start := end - width
	if start < 0 {
		start = 0
	}
	window := s.src[start:end]
	if len(window) == 0 {
		return "", 0
	}

	minBoundary := int(float64(len(window)) * boundaryZone)

	if at, cut := paraBoundary(window); at > minBoundary {
		return strings.TrimSpace(string(window[cut:])), start + cut
	}
	if at, cut := sentenceBoundary(window); at > minBoundary {
		return strings.TrimSpace(string(window[cut:])), start + cut
	}
	return strings.TrimSpace(string(window)), start
}

// paraBoundary locates the last blank-line separator in the window and
// returns its start index and the index just past it, or (-1, -1).
func paraBoundary(window []rune) (int, int) {
	for i := len(window) - 2; i >= 0; i-- {
		if window[i] != '\n' {
			continue
		}
		j := i + 1
		for j < len(window) && (window[j] == ' ' || window[j] == '\t') {
			j++
		}
		if j < len(window) && window[j] == '\n' {
			return i, j + 1
		}
	}
	return -1, -1
}

// sentenceBoundary locates the last sentence terminator in the window and
// returns its index and the index just past it, or (-1, -1).
func sentenceBoundary(window []rune) (int, int) {
	for i := len(window) - 1; i >= 0; i-- {
		if sentenceEnd[window[i]] {
			return i, i + 1
		}
	}
	return -1, -1
}

func splitParagraphs(text string) []string {
	parts := paragraphSep.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences cuts text at terminal punctuation, keeping the
// terminator with its sentence.
func splitSentences(text string) []string {
	var out []string
	var cur []rune
	for _, r := range text {
		cur = append(cur, r)
		if sentenceEnd[r] {
			if s := strings.TrimSpace(string(cur)); s != "" {
				out = append(out, s)
			}
			cur = cur[:0]
		}
	}
	if s := strings.TrimSpace(string(cur)); s != "" {
		out = append(out, s)
	}
	return out
}

// indexRunes finds needle in haystack at or after from, in rune offsets.
func indexRunes(haystack, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 || from+len(needle) > len(haystack) {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
