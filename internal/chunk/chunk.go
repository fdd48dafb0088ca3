// Package chunk splits extracted document text into bounded fragments for LLM calls.
package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is roughly 3000 tokens of English prose.
const DefaultMaxChars = 12000

// Chunk is a contiguous fragment of the source text.
type Chunk struct {
	Index int `json:"index"`
	// Offset is the byte offset of Text in the source.
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

var sentenceEnds = []string{". ", "? ", "! ", "; "}

// Split cuts text into chunks of at most maxChars runes. Concatenating the chunk
// texts in order yields text exactly. Cuts prefer a paragraph break, then a line
// break, then a sentence end, then any whitespace, as long as the cut keeps the
// chunk at least half full; otherwise the window is cut hard.
func Split(text string, maxChars int) []Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		return []Chunk{{Index: 0, Offset: 0, Text: text}}
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := advanceRunes(text, start, maxChars)
		if end < len(text) {
			end = start + cutPoint(text[start:end], maxChars)
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Offset: start, Text: text[start:end]})
		start = end
	}
	return chunks
}

// advanceRunes returns the byte index n runes after from, capped at len(s).
func advanceRunes(s string, from, n int) int {
	i := from
	for count := 0; count < n && i < len(s); count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// cutPoint returns the byte length of window to keep in the current chunk.
func cutPoint(window string, maxChars int) int {
	minKeep := maxChars / 2
	accept := func(cut int) bool {
		return cut > 0 && cut <= len(window) && utf8.RuneCountInString(window[:cut]) >= minKeep
	}

	if i := strings.LastIndex(window, "\n\n"); i >= 0 && accept(i+2) {
		return i + 2
	}
	if i := strings.LastIndexByte(window, '\n'); i >= 0 && accept(i+1) {
		return i + 1
	}
	best := -1
	for _, sep := range sentenceEnds {
		if i := strings.LastIndex(window, sep); i > best {
			best = i
		}
	}
	if best >= 0 && accept(best+2) {
		return best + 2
	}
	if i := strings.LastIndexFunc(window, unicode.IsSpace); i >= 0 {
		_, size := utf8.DecodeRuneInString(window[i:])
		if accept(i + size) {
			return i + size
		}
	}
	return len(window)
}

// Join concatenates chunk texts in order.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}
