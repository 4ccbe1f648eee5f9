package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// StripFences removes a surrounding markdown code fence, with or without a
// language tag. Text without fences passes through untouched.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// DecodeResult reports a structured-output parse. Parse failure is data the
// caller inspects, not an error path: Raw always carries the cleaned text so
// a fallback shape can be built from it.
type DecodeResult struct {
	OK  bool
	Raw string
}

// DecodeJSON strips fences and unmarshals into v. When the whole text does
// not parse, it retries on the widest bracket window (first { or [ to the
// matching last } or ]) before reporting failure.
func DecodeJSON(text string, v interface{}) DecodeResult {
	cleaned := StripFences(text)
	if json.Unmarshal([]byte(cleaned), v) == nil {
		return DecodeResult{OK: true, Raw: cleaned}
	}

	if rescued, ok := bracketWindow(cleaned); ok {
		if json.Unmarshal([]byte(rescued), v) == nil {
			return DecodeResult{OK: true, Raw: rescued}
		}
	}
	return DecodeResult{OK: false, Raw: cleaned}
}

// bracketWindow slices from the first opening bracket to the last matching
// closing bracket. The earlier opener decides the shape: an object reply
// windows {...}, an array reply [...] even though the array elements contain
// braces of their own.
func bracketWindow(text string) (string, bool) {
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	pair := [2]string{"{", "}"}
	start := objStart
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		pair = [2]string{"[", "]"}
		start = arrStart
	}

	end := strings.LastIndex(text, pair[1])
	if start != -1 && end > start {
		return text[start : end+1], true
	}
	return "", false
}

var numberedItem = regexp.MustCompile(`^\d+\.\s+`)

// ParseList extracts list items from free text. Bullet markers ("- ", "* ")
// and leading numbering are stripped; other non-empty lines are kept
// verbatim. If nothing qualifies, the whole trimmed text becomes the single
// element. Never returns an empty slice for non-empty input.
func ParseList(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "- "):
			line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		case strings.HasPrefix(line, "* "):
			line = strings.TrimSpace(strings.TrimPrefix(line, "* "))
		case numberedItem.MatchString(line):
			line = strings.TrimSpace(numberedItem.ReplaceAllString(line, ""))
		}
		if line != "" {
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	return items
}
