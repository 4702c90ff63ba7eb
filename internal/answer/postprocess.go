package answer

import (
	"regexp"
	"strings"
	"unicode"

	"docsense/internal/chunks"
	"docsense/internal/text"
	"docsense/internal/vector"
)

// Options tune the post-processing policy. Thresholds are empirically tuned,
// so they stay configurable rather than baked in.
type Options struct {
	// MaxChars bounds the final answer length; truncation never splits a
	// sentence. Defaults to 700.
	MaxChars int
	// MinSharedTerms is the smallest term overlap between answer and chunk
	// that earns the chunk a citation. One incidental shared word must not
	// count. Defaults to 2.
	MinSharedTerms int
}

func (o Options) withDefaults() Options {
	if o.MaxChars <= 0 {
		o.MaxChars = 700
	}
	if o.MinSharedTerms <= 0 {
		o.MinSharedTerms = 2
	}
	return o
}

// Conversational filler the model is known to emit. A sentence matching any
// pattern of the answer's language is dropped wholesale.
var (
	fillerVietnamese = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Xin chào`),
		regexp.MustCompile(`(?i)^Xin cảm ơn`),
		regexp.MustCompile(`(?i)^Nếu bạn cần thêm`),
		regexp.MustCompile(`(?i)^Chúc bạn thành công`),
		regexp.MustCompile(`(?i)^Tôi hy vọng`),
		regexp.MustCompile(`(?i)^Tôi sẵn sàng`),
		regexp.MustCompile(`(?i)^Tôi luôn sẵn`),
		regexp.MustCompile(`(?i)^Hãy cho tôi biết`),
		regexp.MustCompile(`(?i)^Tôi chúc bạn`),
	}
	fillerEnglish = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Hello`),
		regexp.MustCompile(`(?i)^Hi there`),
		regexp.MustCompile(`(?i)^Thank you`),
		regexp.MustCompile(`(?i)^Thanks for`),
		regexp.MustCompile(`(?i)^I hope this helps`),
		regexp.MustCompile(`(?i)^If you need (any )?(more|further)`),
		regexp.MustCompile(`(?i)^Feel free to`),
		regexp.MustCompile(`(?i)^(Please )?[Ll]et me know`),
		regexp.MustCompile(`(?i)^Best regards`),
	}
	// Table-render junk, language independent.
	fillerAny = regexp.MustCompile(`\|\s*\|`)
)

var termRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Postprocess cleans the raw synthesizer output and derives the attributed
// source set. Steps run in a fixed order, each on the previous step's output:
// echo strip, boilerplate strip, sentence dedup, sentence-bounded truncation,
// punctuation/casing normalization, sentinel check, lexical attribution.
func Postprocess(raw, question string, matches []vector.Match, opts Options) (string, []chunks.SourceRef) {
	opts = opts.withDefaults()

	sentences := text.SplitSentences(raw)

	// 1. Echo strip: models sometimes open by repeating the question.
	if len(sentences) > 0 && strings.TrimSpace(sentences[0]) == strings.TrimSpace(question) {
		sentences = sentences[1:]
	}

	// 2. Boilerplate strip, using the answer's language.
	filler := fillerEnglish
	if text.DetectLanguage(raw) == text.LangVietnamese {
		filler = fillerVietnamese
	}
	kept := sentences[:0]
	for _, s := range sentences {
		if isFiller(s, filler) {
			continue
		}
		kept = append(kept, s)
	}
	sentences = kept

	// 3. Dedup exact repeats, order preserving.
	seen := make(map[string]bool, len(sentences))
	unique := sentences[:0]
	for _, s := range sentences {
		if seen[s] {
			continue
		}
		seen[s] = true
		unique = append(unique, s)
	}

	// 4. Truncate to a sentence boundary; a sentence that would cross the
	// limit is discarded, never cut.
	final := truncateSentences(unique, opts.MaxChars)

	// 5. Normalize terminal punctuation and leading casing.
	final = normalize(final)

	// 6. A sentinel answer cites nothing.
	if IsSentinel(final) {
		return final, nil
	}

	// 7. Attribute sources by term overlap with the final answer.
	return final, Attribute(final, matches, opts.MinSharedTerms)
}

// Attribute returns the refs of matches sharing at least minTerms distinct
// terms with the answer, deduplicated in first-occurrence rank order. This is
// a cheap proxy for provenance; false positives and negatives are expected
// and tolerated.
func Attribute(answer string, matches []vector.Match, minTerms int) []chunks.SourceRef {
	answerTerms := termSet(answer)
	if len(answerTerms) == 0 {
		return nil
	}

	var refs []chunks.SourceRef
	cited := make(map[chunks.SourceRef]bool)

	for _, m := range matches {
		matchTerms := termSet(m.Content)
		overlap := 0
		for term := range answerTerms {
			if matchTerms[term] {
				overlap++
				if overlap >= minTerms {
					break
				}
			}
		}
		if overlap < minTerms {
			continue
		}
		if cited[m.Ref] {
			continue
		}
		cited[m.Ref] = true
		refs = append(refs, m.Ref)
	}
	return refs
}

func isFiller(sentence string, filler []*regexp.Regexp) bool {
	s := strings.TrimSpace(sentence)
	if fillerAny.MatchString(s) {
		return true
	}
	for _, re := range filler {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func truncateSentences(sentences []string, maxChars int) string {
	var b strings.Builder
	length := 0
	for _, s := range sentences {
		sl := len([]rune(s))
		extra := sl
		if length > 0 {
			extra++ // joining space
		}
		if length+extra > maxChars {
			break
		}
		if length > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s)
		length += extra
	}
	return b.String()
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	runes := []rune(s)

	// Collapse any trailing punctuation run into a single terminal period.
	end := len(runes)
	for end > 0 && isTerminal(runes[end-1]) {
		end--
	}
	runes = append(runes[:end], '.')

	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…', ',', ';', ':':
		return true
	}
	return false
}

func termSet(s string) map[string]bool {
	terms := termRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		set[t] = true
	}
	return set
}
