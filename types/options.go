package types

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	exampleDelimiters = regexp.MustCompile(`[\n,;/\\]+`)
	sliderDelimiters  = regexp.MustCompile(`[,\s\-]+`)
)

const (
	DefaultSliderMin  = 1
	DefaultSliderMax  = 5
	sliderDefaultSpan = 9
)

// ParseExampleList splits a question_example into options. Newline, comma,
// semicolon, slash and backslash all separate options; an escaped "\n" is
// treated as a newline.
func ParseExampleList(example string) []string {
	normalized := strings.ReplaceAll(example, `\n`, "\n")
	parts := exampleDelimiters.Split(normalized, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseSliderRange reads "min-max" (or "min max", "min,max") from a slider
// example. A single number n yields (n, n+9). Empty or malformed input yields
// the default 1-5 range with ok=false.
func ParseSliderRange(example string) (lo, hi int, ok bool) {
	trimmed := strings.TrimSpace(example)
	if trimmed == "" {
		return DefaultSliderMin, DefaultSliderMax, false
	}
	parts := sliderDelimiters.Split(trimmed, -1)
	first, err := strconv.Atoi(parts[0])
	if err != nil {
		return DefaultSliderMin, DefaultSliderMax, false
	}
	last := first + sliderDefaultSpan
	if len(parts) > 1 {
		last, err = strconv.Atoi(parts[1])
		if err != nil {
			return DefaultSliderMin, DefaultSliderMax, false
		}
	}
	if last < first {
		return DefaultSliderMin, DefaultSliderMax, false
	}
	return first, last, true
}

// Options returns the option list for choice questions and nil otherwise.
func (q Question) Options() []string {
	if !q.QuestionType.IsChoice() {
		return nil
	}
	return ParseExampleList(q.QuestionExample)
}

// NormalizeExample rewrites list-type examples as "A / B / C" so every
// option list is stored with one delimiter.
func NormalizeExample(q Question) Question {
	if q.QuestionType.IsChoice() || q.QuestionType == QuestionSliderRating {
		q.QuestionExample = strings.Join(ParseExampleList(q.QuestionExample), " / ")
	}
	return q
}
