package text

import (
	"strings"
)

type Language string

const (
	LangEnglish    Language = "en"
	LangVietnamese Language = "vi"
)

// vietnameseRunes are letters that only occur in Vietnamese orthography
// among the languages this service answers in.
const vietnameseRunes = "ăâđêôơư" +
	"áàảãạắằẳẵặấầẩẫậ" +
	"éèẻẽẹếềểễệ" +
	"íìỉĩị" +
	"óòỏõọốồổỗộớờởỡợ" +
	"úùủũụứừửữự" +
	"ýỳỷỹỵ"

// vietnameseWords catches Vietnamese typed without diacritics. These are
// function words that are rare as standalone English tokens.
var vietnameseWords = map[string]bool{
	"khong": true, "duoc": true, "nhung": true, "trong": true,
	"nguoi": true, "hoac": true, "thong": true,
}

// DetectLanguage classifies text as Vietnamese or English. Vietnamese is
// detected by diacritic letters, falling back to a small function-word scan
// for diacritic-free input. Everything else is treated as English.
func DetectLanguage(s string) Language {
	lower := strings.ToLower(s)

	if strings.ContainsAny(lower, vietnameseRunes) {
		return LangVietnamese
	}

	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if vietnameseWords[word] {
			return LangVietnamese
		}
	}
	return LangEnglish
}
