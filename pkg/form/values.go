package form

import (
	"fmt"
	"strconv"
)

// values is the nested tree of committed field values keyed by FieldID
// segments. Numeric segments address slice elements.
type values map[string]any

func (v values) get(id FieldID) (any, bool) {
	segments := id.Segments()
	if len(segments) == 0 {
		return nil, false
	}
	var current any = map[string]any(v)
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func (v values) set(id FieldID, value any) error {
	segments := id.Segments()
	if len(segments) == 0 {
		return fmt.Errorf("form: empty field id")
	}
	_, err := assign(map[string]any(v), segments, value)
	return err
}

// assign writes value below node and returns the (possibly reallocated)
// container so slice growth propagates to the parent.
func assign(node any, segments []string, value any) (any, error) {
	segment := segments[0]
	last := len(segments) == 1

	switch container := node.(type) {
	case map[string]any:
		if last {
			container[segment] = value
			return container, nil
		}
		child := container[segment]
		if child == nil {
			child = emptyContainer(segments[1])
		}
		updated, err := assign(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		container[segment] = updated
		return container, nil

	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("form: expected index, got %q", segment)
		}
		if idx > MaxIndex {
			return nil, fmt.Errorf("form: index %d exceeds %d", idx, MaxIndex)
		}
		if len(container) <= idx {
			container = append(container, make([]any, idx+1-len(container))...)
		}
		if last {
			container[idx] = value
			return container, nil
		}
		child := container[idx]
		if child == nil {
			child = emptyContainer(segments[1])
		}
		updated, err := assign(child, segments[1:], value)
		if err != nil {
			return nil, err
		}
		container[idx] = updated
		return container, nil

	default:
		return nil, fmt.Errorf("form: cannot descend into %T at %q", node, segment)
	}
}

func emptyContainer(nextSegment string) any {
	if _, err := strconv.Atoi(nextSegment); err == nil {
		return []any{}
	}
	return make(map[string]any)
}

func (v values) clone() map[string]any {
	out := make(map[string]any, len(v))
	for key, value := range v {
		out[key] = deepCopy(value)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	default:
		return typed
	}
}
