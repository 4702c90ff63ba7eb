package answer

import (
	"strings"
)

// Fixed no-information sentinels. Downstream source suppression does an
// exact match on these, so the wording must never drift from the prompt.
const (
	SentinelVietnamese = "Thông tin bạn hỏi không được đề cập trong file."
	SentinelEnglish    = "The information you asked for is not mentioned in the file."
)

func IsSentinel(s string) bool {
	t := strings.TrimSpace(s)
	return t == SentinelVietnamese || t == SentinelEnglish
}

// BuildPrompt assembles the instruction template around the question and the
// retrieved context. The clauses are behavioral contract, not decoration:
// context-only answers, summary mode for overview questions, the two exact
// sentinels, language matching, and a natural ending inside the token cap.
func BuildPrompt(question string, contexts []string) string {
	var b strings.Builder

	b.WriteString("Answer the question '")
	b.WriteString(question)
	b.WriteString("' based only on the information from the following text:\n\n")
	b.WriteString(strings.Join(contexts, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString("If the question asks for a summary or overview (e.g., 'File hiện tại chứa thông tin gì?'), ")
	b.WriteString("provide a concise and brief summary of the main topics in the text. ")
	b.WriteString("If no relevant information is found in the text, reply with: '")
	b.WriteString(SentinelVietnamese)
	b.WriteString("' if the question is in Vietnamese, or '")
	b.WriteString(SentinelEnglish)
	b.WriteString("' if the question is in English. ")
	b.WriteString("Ensure the entire response, including this message, is in the same language as the question '")
	b.WriteString(question)
	b.WriteString("'. ")
	b.WriteString("Keep answers short, 600 tokens max, and end naturally so as not to be cut off within the 600 token limit.")

	return b.String()
}
