// Package chunker splits raw document text into bounded segments suitable
// for one extraction request each, and shrinks segments further when the
// rendered request would exceed the extraction service's token ceiling.
package chunker

import (
	"iter"
	"unicode"
)

// Chunk returns an ordered, lazy sequence of non-empty substrings of text,
// each at most maxLen runes long. Concatenating the chunks in order
// reproduces text exactly. Cuts land on whitespace boundaries; a word is
// split mid-word only when a whole window contains no whitespace at all.
// The sequence is restartable: ranging over it again replays it from the
// beginning. Empty text (or maxLen <= 0) yields an empty sequence.
func Chunk(text string, maxLen int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" || maxLen <= 0 {
			return
		}
		runes := []rune(text)
		for pos := 0; pos < len(runes); {
			end := pos + maxLen
			if end >= len(runes) {
				yield(string(runes[pos:]))
				return
			}
			cut := end
			if !unicode.IsSpace(runes[end]) {
				// Back up to the nearest whitespace inside the window and
				// keep it at the tail of this chunk.
				for i := end - 1; i >= pos; i-- {
					if unicode.IsSpace(runes[i]) {
						cut = i + 1
						break
					}
				}
			}
			if !yield(string(runes[pos:cut])) {
				return
			}
			pos = cut
		}
	}
}

// ChunkAll collects the chunk sequence into a slice.
func ChunkAll(text string, maxLen int) []string {
	var chunks []string
	for c := range Chunk(text, maxLen) {
		chunks = append(chunks, c)
	}
	return chunks
}
