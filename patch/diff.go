package patch

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Diff returns the operations that turn before into after. Object members
// are compared recursively, arrays of equal length element by element, and
// anything else is replaced as a whole. The result is ordered by path.
func Diff[T any](before, after T) ([]Operation, error) {
	beforeDoc, err := toGeneric(before)
	if err != nil {
		return nil, fmt.Errorf("failed to convert before state: %w", err)
	}
	afterDoc, err := toGeneric(after)
	if err != nil {
		return nil, fmt.Errorf("failed to convert after state: %w", err)
	}
	ops := make([]Operation, 0)
	diffValue("", beforeDoc, afterDoc, &ops)
	return ops, nil
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func diffValue(path string, before, after any, ops *[]Operation) {
	if reflect.DeepEqual(before, after) {
		return
	}

	if beforeMap, ok := before.(map[string]any); ok {
		if afterMap, ok := after.(map[string]any); ok {
			diffMap(path, beforeMap, afterMap, ops)
			return
		}
	}

	if beforeArr, ok := before.([]any); ok {
		if afterArr, ok := after.([]any); ok && len(beforeArr) == len(afterArr) {
			for i := range beforeArr {
				diffValue(path+"/"+strconv.Itoa(i), beforeArr[i], afterArr[i], ops)
			}
			return
		}
	}

	*ops = append(*ops, Operation{Op: OperationReplace, Path: path, Value: after})
}

func diffMap(prefix string, before, after map[string]any, ops *[]Operation) {
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := prefix + "/" + escapeJSONPointer(key)
		beforeValue, inBefore := before[key]
		afterValue, inAfter := after[key]
		switch {
		case !inAfter:
			*ops = append(*ops, Operation{Op: OperationRemove, Path: path})
		case !inBefore:
			*ops = append(*ops, Operation{Op: OperationAdd, Path: path, Value: afterValue})
		default:
			diffValue(path, beforeValue, afterValue, ops)
		}
	}
}
