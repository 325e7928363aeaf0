package dialogue

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
)

// FormatHistory renders the last n messages as "Role: content" lines.
func FormatHistory(history []*schema.Message, n int) string {
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		if msg == nil {
			continue
		}
		lines = append(lines, roleLabel(msg.Role)+": "+strings.TrimSpace(msg.Content))
	}
	return strings.Join(lines, "\n")
}

func roleLabel(role schema.RoleType) string {
	s := string(role)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatJSON(v any) string {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
