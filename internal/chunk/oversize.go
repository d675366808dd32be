package chunk

import (
	"regexp"
	"strings"
)

// sentenceBoundary approximates sentence splitting: a single ., ! or ?
// followed by whitespace. Good enough for the
// oversize cascade, which only needs to find a defensible place to cut.
var sentenceBoundary = regexp.MustCompile(`(?:[.!?])\s+`)

// splitOversize implements spec.md §4.B's shared 4-level cascade for a
// section/symbol that exceeds maxTokens: split by paragraph, then by
// sentence, then by line, then at a hard character boundary of
// maxTokens*TokensPerChar, each level only engaging if the previous one
// still leaves a piece over budget. Adjacent undersized pieces are
// greedily merged back together up to maxTokens so the cascade doesn't
// produce a flood of tiny chunks.
func splitOversize(text string, maxTokens int) []string {
	if EstimateTokens(text) <= maxTokens {
		return []string{text}
	}

	pieces := splitByParagraph(text)
	pieces = cascadeIfNeeded(pieces, maxTokens, splitBySentence)
	pieces = cascadeIfNeeded(pieces, maxTokens, splitByLine)
	pieces = cascadeIfNeeded(pieces, maxTokens, func(s string) []string { return splitHardChar(s, maxTokens) })

	return mergeUndersized(pieces, maxTokens)
}

// cascadeIfNeeded applies splitFn only to pieces still over budget, leaving
// already-small pieces untouched so earlier, more semantically meaningful
// splits are preferred.
func cascadeIfNeeded(pieces []string, maxTokens int, splitFn func(string) []string) []string {
	var out []string
	for _, p := range pieces {
		if EstimateTokens(p) <= maxTokens {
			out = append(out, p)
			continue
		}
		out = append(out, splitFn(p)...)
	}
	return out
}

func splitByParagraph(text string) []string {
	parts := strings.Split(text, "\n\n")
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

func splitBySentence(text string) []string {
	idxs := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}
	var out []string
	last := 0
	for _, loc := range idxs {
		out = append(out, text[last:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, text[last:])
	}
	return out
}

func splitByLine(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// splitHardChar is the last-resort level: a fixed character window sized to
// maxTokens*TokensPerChar with no regard for word or line boundaries.
func splitHardChar(text string, maxTokens int) []string {
	width := maxTokens * TokensPerChar
	if width <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += width {
		end := i + width
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// mergeUndersized greedily recombines adjacent pieces while the combination
// still fits maxTokens, so the cascade's finer levels don't leave a trail of
// tiny chunks.
func mergeUndersized(pieces []string, maxTokens int) []string {
	if len(pieces) == 0 {
		return pieces
	}
	var out []string
	current := pieces[0]
	for _, next := range pieces[1:] {
		candidate := current + "\n\n" + next
		if EstimateTokens(candidate) <= maxTokens {
			current = candidate
			continue
		}
		out = append(out, current)
		current = next
	}
	out = append(out, current)
	return out
}
