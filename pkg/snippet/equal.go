package snippet

import "sort"

// RuleEqual reports whether two rules have the same content. Ids are
// excluded so that rules imported from another catalog can be recognized.
func RuleEqual(a, b TransformRule) bool {
	if a.Title != b.Title {
		return false
	}
	if a.Domain != b.Domain {
		return false
	}
	if a.Pattern != b.Pattern {
		return false
	}
	return a.Replacement == b.Replacement
}

// SnippetEqual reports whether two snippets have the same content, ignoring
// ids. EnabledRuleIDs are compared positionally: when both rule catalogs are
// supplied, each position is compared by resolved rule content (falling back
// to id equality where either id is unresolved), so snippets authored
// against differently-id'd catalogs compare equal. With nil catalogs the ids
// are compared directly. Contexts are compared as an order-independent set.
func SnippetEqual(a, b Snippet, rulesA, rulesB []TransformRule) bool {
	if a.Title != b.Title {
		return false
	}
	if a.ClipboardText != b.ClipboardText {
		return false
	}
	if a.ShortcutNumber != b.ShortcutNumber {
		return false
	}
	if a.DeleteQuery != b.DeleteQuery {
		return false
	}
	if !ruleRefsEqual(a.EnabledRuleIDs, b.EnabledRuleIDs, rulesA, rulesB) {
		return false
	}
	return contextsEqual(a.Contexts, b.Contexts)
}

func ruleRefsEqual(idsA, idsB []string, rulesA, rulesB []TransformRule) bool {
	if len(idsA) != len(idsB) {
		return false
	}
	if rulesA == nil || rulesB == nil {
		for i := range idsA {
			if idsA[i] != idsB[i] {
				return false
			}
		}
		return true
	}

	byIDA := indexRules(rulesA)
	byIDB := indexRules(rulesB)
	for i := range idsA {
		ra, okA := byIDA[idsA[i]]
		rb, okB := byIDB[idsB[i]]
		if !okA || !okB {
			// Unresolved on either side: fall back to id comparison.
			if idsA[i] != idsB[i] {
				return false
			}
			continue
		}
		if !RuleEqual(ra, rb) {
			return false
		}
	}
	return true
}

func contextsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sortedA := append([]string(nil), a...)
	sortedB := append([]string(nil), b...)
	sort.Strings(sortedA)
	sort.Strings(sortedB)
	for i := range sortedA {
		if sortedA[i] != sortedB[i] {
			return false
		}
	}
	return true
}

func indexRules(rules []TransformRule) map[string]TransformRule {
	m := make(map[string]TransformRule, len(rules))
	for _, r := range rules {
		m[r.ID] = r
	}
	return m
}
