package chunker

import (
	"unicode"
	"unicode/utf8"
)

const (
	// estimatorCharsPerToken is a conservative fixed character-to-token
	// ratio. It deliberately is not an exact tokenizer; the safety margin
	// and the shrink loop absorb the estimation error.
	estimatorCharsPerToken = 4

	// charBudgetPerToken converts a token budget into a character budget
	// more conservatively than the estimator itself.
	charBudgetPerToken = 3

	// minChunkChars is the floor below which the shrink loop stops, so that
	// estimator error can never shrink a chunk away entirely.
	minChunkChars = 1000
)

// EstimateTokens returns a conservative token estimate for s.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + estimatorCharsPerToken - 1) / estimatorCharsPerToken
}

// Fitter shortens chunks so that the rendered extraction request (fixed
// prompt template plus chunk) stays under the service's token ceiling.
type Fitter struct {
	tokenLimit     int
	safetyMargin   int
	overheadTokens int
}

// NewFitter builds a Fitter for the given token ceiling. emptyTemplate is
// the extraction prompt rendered with an empty chunk; its overhead is
// estimated once and charged against every chunk.
func NewFitter(tokenLimit, safetyMargin int, emptyTemplate string) *Fitter {
	return &Fitter{
		tokenLimit:     tokenLimit,
		safetyMargin:   safetyMargin,
		overheadTokens: EstimateTokens(emptyTemplate),
	}
}

// Fit returns chunk, possibly shortened at a whitespace boundary, such that
// the estimated request size stays under tokenLimit - safetyMargin. Fit is
// idempotent and always terminates: shrinking stops once under budget or at
// the minimum floor. It never fails and never returns an empty chunk for a
// non-empty input.
func (f *Fitter) Fit(chunk string) string {
	tokenBudget := f.tokenLimit - f.safetyMargin - f.overheadTokens
	charBudget := tokenBudget * charBudgetPerToken
	if charBudget < minChunkChars {
		charBudget = minChunkChars
	}

	if utf8.RuneCountInString(chunk) > charBudget {
		chunk = cutAtWhitespace(chunk, charBudget)
	}

	// Guard against estimator error: shrink by 10% while still over budget,
	// down to the floor.
	for EstimateTokens(chunk)+f.overheadTokens > f.tokenLimit-f.safetyMargin {
		n := utf8.RuneCountInString(chunk)
		if n <= minChunkChars {
			break
		}
		target := n * 9 / 10
		if target < minChunkChars {
			target = minChunkChars
		}
		chunk = cutAtWhitespace(chunk, target)
	}
	return chunk
}

// cutAtWhitespace truncates s to at most max runes, preferring the nearest
// preceding whitespace boundary. Returns s unchanged when already short
// enough.
func cutAtWhitespace(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max || max <= 0 {
		return s
	}
	cut := max
	for i := max - 1; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return string(runes[:cut])
}
