package structured

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ErrInvalidOutput marks model text that does not hold the expected JSON.
var ErrInvalidOutput = errors.New("invalid model output")

// StripCodeFence removes a leading ``` or ```json marker and a trailing ```
// marker. Text without fences is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			tag := strings.TrimSpace(s[:nl])
			if tag == "" || strings.EqualFold(tag, "json") {
				s = s[nl+1:]
			}
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON strips code fences and decodes the remaining text into T. When
// the text carries prose around the object, the first balanced {...} block
// is tried before giving up.
func DecodeJSON[T any](raw string) (T, error) {
	var zero T
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return zero, fmt.Errorf("%w: empty response", ErrInvalidOutput)
	}
	var result T
	err := sonic.UnmarshalString(cleaned, &result)
	if err == nil {
		return result, nil
	}
	block := extractJSONBlock(cleaned)
	if block == "" || block == cleaned {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	result = *new(T)
	if err := sonic.UnmarshalString(block, &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return result, nil
}

// extractJSONBlock finds the first balanced { ... } block in the text.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
