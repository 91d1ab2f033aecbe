package compliance

import (
	"fmt"
	"strings"
)

// DefaultMaxDocChars bounds the document text sent with each rule.
const DefaultMaxDocChars = 25000

const systemPrompt = `You are an expert compliance auditor. Your task is to check a document against a specific rule.
You must strictly output valid JSON only. Do not include any markdown formatting (like ` + "```json" + `).`

// buildUserPrompt embeds the (already truncated) document and the rule.
func buildUserPrompt(documentText, rule string) string {
	return strings.Join([]string{
		"Here is the extracted text from a document (with page markers like '--- PAGE X ---'):",
		"<document_text>",
		documentText,
		"</document_text>",
		"",
		"Analyze the document text carefully against this specific rule:",
		fmt.Sprintf("Rule: \"%s\"", rule),
		"",
		"Instructions:",
		"1. Determine if the rule passes or fails based on the text.",
		`2. Find the *single best sentence or phrase* from the text that acts as evidence. Include the page marker if available nearby (e.g., "Found on Page 3: 'The exact quote sentence'"). If it fails and no specific evidence exists, state "N/A".`,
		"3. Provide a very short and concise reasoning (1-2 sentences) for your decision.",
		"4. Provide a confidence score (integer 0-100) for your assessment, where 100 is absolute certainty.",
		"",
		"Return a JSON object in precisely this format, ensuring all fields are present:",
		"{",
		`"status": "pass" or "fail" or "error",`,
		`"evidence": "Found on Page X: 'The exact quote sentence'" or "N/A",`,
		`"reasoning": "Short explanation why it passed or failed.",`,
		`"confidence": 90`,
		"}",
	}, "\n")
}

// truncateText keeps the first limit characters. The cut is a hard prefix
// on rune boundaries; nothing is appended.
func truncateText(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
