package store

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/amishk599/jobalert/internal/model"
)

// TermsPath is the path below which every search term keeps its state.
const TermsPath = "search_terms"

// SeenKey returns the key of the SeenSet for term.
func SeenKey(term model.SearchTerm) string {
	return TermsPath + "/" + string(term) + "/seen"
}

// childNames returns the sorted, distinct path segments directly below path
// among keys.
func childNames(path string, keys []string) []string {
	prefix := strings.TrimSuffix(path, "/") + "/"
	var names []string
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok || rest == "" {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		if name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func encode(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding values: %w", err)
	}
	return data, nil
}

func decode(key string, data []byte) ([]string, error) {
	var values []string
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding value at %s: %w", key, err)
	}
	return values, nil
}
