package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hldsbot/hldsbot-go/pkg/hldslog/event"
)

// ValidEventKinds maps flag values to event kinds. The disabled sentinel is
// not selectable.
var ValidEventKinds = func() map[string]event.Kind {
	m := make(map[string]event.Kind)
	for _, k := range event.Kinds() {
		if k != event.Disabled {
			m[string(k)] = k
		}
	}
	return m
}()

// ValidEventKindNames returns the selectable kind names, sorted.
func ValidEventKindNames() []string {
	names := make([]string, 0, len(ValidEventKinds))
	for name := range ValidEventKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeEventKinds validates flag values case-insensitively, trims
// whitespace and removes duplicates, keeping the first occurrence order.
func NormalizeEventKinds(input []string) ([]event.Kind, error) {
	if len(input) == 0 {
		return nil, nil
	}

	seen := make(map[event.Kind]bool, len(input))
	out := make([]event.Kind, 0, len(input))
	for _, raw := range input {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			return nil, fmt.Errorf("empty event kind (valid: %s)", strings.Join(ValidEventKindNames(), ", "))
		}
		k, ok := ValidEventKinds[name]
		if !ok {
			return nil, fmt.Errorf("unknown event kind %q (valid: %s)", raw, strings.Join(ValidEventKindNames(), ", "))
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}
