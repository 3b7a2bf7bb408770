package utils

import "strings"

// StripCodeFences removes markdown fence markers a model wraps around its output.
// Language tags listed in langs are removed along with the opening fence.
func StripCodeFences(text string, langs ...string) string {
	for _, lang := range langs {
		text = strings.ReplaceAll(text, "```"+lang, "")
	}
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// StripQuotes removes double quote characters and surrounding whitespace.
func StripQuotes(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, `"`, ""))
}

// NonEmptyLines splits text on newlines and drops blank entries.
func NonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
