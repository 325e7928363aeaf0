package patch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatOperations renders ops as one "- op path: value" line each.
func FormatOperations(ops []Operation) string {
	if len(ops) == 0 {
		return "none"
	}
	var sb strings.Builder
	for _, op := range ops {
		sb.WriteString("- ")
		sb.WriteString(op.Op)
		sb.WriteString(" ")
		sb.WriteString(op.Path)
		if op.Op != OperationRemove {
			sb.WriteString(": ")
			sb.WriteString(formatValue(op.Value))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	const limit = 200
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

func formatAllowedPaths(paths []string) string {
	if len(paths) == 0 {
		return "all (no restriction)"
	}
	var sb strings.Builder
	for _, path := range paths {
		sb.WriteString("- ")
		sb.WriteString(path)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
