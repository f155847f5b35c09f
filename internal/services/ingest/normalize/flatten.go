package normalize

import (
	"maps"
	"slices"
)

type flatEntry struct {
	value any
	depth int
}

// flatten indexes every value of obj by its dot-joined key path. Intermediate objects are
// indexed too so a column can take a whole sub-object. When a literal dotted key collides
// with a nested path the shallower one wins
func flatten(obj map[string]any) map[string]any {
	acc := make(map[string]flatEntry, len(obj))
	walk(acc, "", obj, 0)
	out := make(map[string]any, len(acc))
	for k, e := range acc {
		out[k] = e.value
	}
	return out
}

func walk(acc map[string]flatEntry, prefix string, obj map[string]any, depth int) {
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		v := obj[k]
		if cur, ok := acc[key]; !ok || depth < cur.depth {
			acc[key] = flatEntry{value: v, depth: depth}
		}
		if child, ok := v.(map[string]any); ok {
			walk(acc, key, child, depth+1)
		}
	}
}
