package text

import (
	"strings"
)

// separators is the split hierarchy, coarsest first. The empty string means
// a hard split at the character limit and is the terminal fallback.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunk splits raw text into segments of at most size characters, with
// overlap characters shared between consecutive segments so context survives
// chunk boundaries. Splitting walks a separator hierarchy (paragraph, line,
// sentence, word, rune) and only descends when a piece is still too large.
//
// The output is fully determined by (text, size, overlap): ingestion and
// tests rely on re-chunking producing the exact same segment sequence.
// Empty or whitespace-only input yields no segments.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	pieces := splitRecursive(text, size, separators)
	return mergePieces(pieces, size, overlap)
}

// splitRecursive breaks text into pieces no longer than size characters,
// preferring the coarsest separator that gets the job done. Separators stay
// attached to the preceding piece so content is never lost.
func splitRecursive(text string, size int, seps []string) []string {
	if runeLen(text) <= size {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		// Terminal fallback: hard split on rune boundaries.
		runes := []rune(text)
		var out []string
		for start := 0; start < len(runes); start += size {
			end := start + size
			if end > len(runes) {
				end = len(runes)
			}
			out = append(out, string(runes[start:end]))
		}
		return out
	}

	parts := strings.Split(text, sep)
	var out []string
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		if runeLen(part) <= size {
			out = append(out, part)
		} else {
			out = append(out, splitRecursive(part, size, seps[1:])...)
		}
	}
	return out
}

// mergePieces packs adjacent pieces into chunks of at most size characters,
// carrying an overlap-sized tail of each emitted chunk into the next one.
func mergePieces(pieces []string, size, overlap int) []string {
	var chunks []string
	var current []rune

	emit := func() {
		chunk := strings.TrimSpace(string(current))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		pr := []rune(piece)

		if len(current) > 0 && len(current)+len(pr) > size {
			emit()

			tail := current
			if len(tail) > overlap {
				tail = tail[len(tail)-overlap:]
			}
			current = append([]rune(nil), tail...)

			// Shrink the carried overlap if the next piece would not fit
			// beside it. Guarantees progress and the size bound.
			for len(current) > 0 && len(current)+len(pr) > size {
				current = current[1:]
			}
		}
		current = append(current, pr...)
	}

	if len(current) > 0 {
		emit()
	}
	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}
