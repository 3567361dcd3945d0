package extract

import (
	"errors"
	"strings"
)

const fence = "```"

// ErrNoJSON is returned when no JSON value can be located in a response
var ErrNoJSON = errors.New("response contains no JSON array or object")

// Sanitize removes the wrapping a model puts around its JSON: surrounding
// whitespace, Markdown code fences (with or without a language tag) and
// conversational text around a single array of objects. The result always starts with
// '[' or '{'; otherwise ErrNoJSON is returned. Sanitize does not check that
// the result decodes.
func Sanitize(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, fence) {
		text = unfence(text)
	} else if start := strings.Index(text, fence); start != -1 && !startsJSON(text) {
		// prose before a fenced block
		text = unfence(text[start:])
	}

	if !startsJSON(text) {
		open := arrayOfObjects(text)
		end := strings.LastIndex(text, "]")
		if open == -1 || end < open {
			return "", ErrNoJSON
		}
		text = text[open : end+1]
	}

	return text, nil
}

// arrayOfObjects returns the index of the first '[' whose next non-space
// character is '{', or -1. Citation brackets like "[1]" are skipped.
func arrayOfObjects(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		if rest := strings.TrimLeft(text[i+1:], " \t\r\n"); strings.HasPrefix(rest, "{") {
			return i
		}
	}
	return -1
}

// unfence strips an opening fence line and everything from the closing fence on.
func unfence(text string) string {
	text = strings.TrimPrefix(text, fence)

	// language tag, e.g. ```json
	if nl := strings.IndexAny(text, "\r\n"); nl != -1 && isTag(text[:nl]) {
		text = text[nl:]
	} else {
		text = strings.TrimLeft(text, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	if idx := strings.LastIndex(text, fence); idx != -1 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func isTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func startsJSON(s string) bool {
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{")
}
