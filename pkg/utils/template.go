package utils

import (
	"strings"
)

// RenderTemplate substitutes {name} placeholders. Doubled braces are escapes
// for literal braces, so "{{query}}" renders as "{query}" and is not
// substituted. Placeholders without a value are left in place so partially
// authored prompts still render.
func RenderTemplate(template string, values map[string]string) string {
	var b strings.Builder
	b.Grow(len(template))
	scanTemplate(template, func(literal string) {
		b.WriteString(literal)
	}, func(name string) {
		if value, ok := values[name]; ok {
			b.WriteString(value)
			return
		}
		b.WriteString("{" + name + "}")
	})
	return b.String()
}

// Placeholders lists the distinct placeholder names in template, in order of
// first use. Escaped braces are not placeholders.
func Placeholders(template string) []string {
	seen := make(map[string]struct{})
	var names []string
	scanTemplate(template, func(string) {}, func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return names
}

// scanTemplate walks template once, reporting literal text and placeholder names
func scanTemplate(template string, literal func(string), placeholder func(string)) {
	start := 0
	flush := func(end int) {
		if end > start {
			literal(template[start:end])
		}
	}

	for i := 0; i < len(template); {
		c := template[i]
		switch {
		case (c == '{' || c == '}') && i+1 < len(template) && template[i+1] == c:
			flush(i)
			literal(string(c))
			i += 2
			start = i
		case c == '{':
			end := identifierEnd(template, i+1)
			if end > i+1 && end < len(template) && template[end] == '}' {
				flush(i)
				placeholder(template[i+1 : end])
				i = end + 1
				start = i
				continue
			}
			i++
		default:
			i++
		}
	}
	flush(len(template))
}

func identifierEnd(s string, from int) int {
	i := from
	for i < len(s) {
		c := s[i]
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && i > from) {
			break
		}
		i++
	}
	return i
}
