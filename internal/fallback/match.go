package fallback

import "strings"

// predicate reports whether a lowercased text blob triggers a rule.
type predicate func(text string) bool

func anyOf(phrases ...string) predicate {
	return func(text string) bool {
		for _, p := range phrases {
			if strings.Contains(text, p) {
				return true
			}
		}
		return false
	}
}

func allOf(preds ...predicate) predicate {
	return func(text string) bool {
		for _, p := range preds {
			if !p(text) {
				return false
			}
		}
		return true
	}
}

func either(preds ...predicate) predicate {
	return func(text string) bool {
		for _, p := range preds {
			if p(text) {
				return true
			}
		}
		return false
	}
}

func not(p predicate) predicate {
	return func(text string) bool { return !p(text) }
}

func always(string) bool { return true }

// dedupe keeps the first occurrence of each entry, comparing trimmed lowercase forms.
func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(it))
	}
	return out
}
