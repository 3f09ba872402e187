// Package bulk turns free-form pasted vocabulary lists into word pairs.
package bulk

import (
	"fmt"
	"strings"

	"pinyinmatch/internal/domain"
)

// separators are tried in order; the first one that splits a line into two
// non-empty halves wins.
var separators = []string{"\t", " – ", " - ", ", ", ": "}

// Result is the outcome of parsing a block of text.
type Result struct {
	Pairs   []domain.WordPair
	Added   int
	Skipped int
}

// ParseLine parses a single "pinyin <sep> english" line.
// Blank lines and lines without a usable separator return ok=false.
func ParseLine(line string) (pair domain.WordPair, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return domain.WordPair{}, false
	}

	for _, sep := range separators {
		idx := strings.Index(trimmed, sep)
		if idx == -1 {
			continue
		}
		pinyin := strings.TrimSpace(trimmed[:idx])
		english := strings.TrimSpace(trimmed[idx+len(sep):])
		if pinyin != "" && english != "" {
			return domain.WordPair{Pinyin: pinyin, English: english}, true
		}
	}

	return domain.WordPair{}, false
}

// Parse parses every line of text. Blank lines are neither added nor skipped.
func Parse(text string) Result {
	var res Result
	if strings.TrimSpace(text) == "" {
		return res
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if pair, ok := ParseLine(line); ok {
			res.Pairs = append(res.Pairs, pair)
			res.Added++
		} else if strings.TrimSpace(line) != "" {
			res.Skipped++
		}
	}

	return res
}

// Feedback returns the message shown to the user after a bulk add.
// It is empty when the input had no content at all.
func (r Result) Feedback() string {
	switch {
	case r.Added > 0:
		msg := fmt.Sprintf("Added %d pair(s).", r.Added)
		if r.Skipped > 0 {
			msg += fmt.Sprintf(" %d skipped.", r.Skipped)
		}
		return msg
	case r.Skipped > 0:
		return `No pairs added. Use tab, " - ", or ", " between pinyin and English.`
	default:
		return ""
	}
}
