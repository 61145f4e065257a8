package merge

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/copysnip/pkg/snippet"
)

// RuleImport is the outcome of merging an incoming rule set into an
// existing catalog.
type RuleImport struct {
	// IDMapping maps every incoming rule id to the id it resolved to in the
	// merged catalog (an existing id for duplicates, a freshly minted one
	// otherwise).
	IDMapping map[string]string

	// NewRules holds the rules that were actually added, in incoming order,
	// already carrying their minted ids.
	NewRules []snippet.TransformRule

	// Merged is the full post-import catalog: existing followed by NewRules.
	Merged []snippet.TransformRule

	// Outcomes records what happened to each incoming rule, in incoming
	// order, for user-facing reporting.
	Outcomes []RuleOutcome
}

// RuleOutcome is the per-rule import result.
type RuleOutcome struct {
	Title    string
	Added    bool
	MappedTo string // id of the existing rule that absorbed it, when not added
}

// SnippetImport is the outcome of merging an incoming snippet set.
type SnippetImport struct {
	NewSnippets []snippet.Snippet
	Skipped     int

	// Outcomes records what happened to each incoming snippet, in incoming
	// order. Added is false for duplicates.
	Outcomes []SnippetOutcome
}

// SnippetOutcome is the per-snippet import result.
type SnippetOutcome struct {
	Title string
	Added bool
}

// ImportRules merges incoming rules into existing. A structurally-equal
// existing rule absorbs the incoming one (no new rule, id mapped to the
// existing id); everything else is added under a fresh id that is
// collision-checked against the existing catalog and the ids minted so far
// in this batch.
func ImportRules(ctx context.Context, incoming, existing []snippet.TransformRule) RuleImport {
	out := RuleImport{
		IDMapping: make(map[string]string, len(incoming)),
		Merged:    append([]snippet.TransformRule(nil), existing...),
	}

	taken := make(map[string]bool, len(existing))
	for _, r := range existing {
		taken[r.ID] = true
	}

	for _, in := range incoming {
		if match, ok := findEqualRule(in, existing); ok {
			out.IDMapping[in.ID] = match.ID
			out.Outcomes = append(out.Outcomes, RuleOutcome{Title: in.Title, MappedTo: match.ID})
			continue
		}

		added := in
		added.ID = snippet.UniqueRuleID(taken)
		taken[added.ID] = true

		out.IDMapping[in.ID] = added.ID
		out.NewRules = append(out.NewRules, added)
		out.Merged = append(out.Merged, added)
		out.Outcomes = append(out.Outcomes, RuleOutcome{Title: in.Title, Added: true})
	}

	zerolog.Ctx(ctx).Debug().
		Int("incoming", len(incoming)).
		Int("added", len(out.NewRules)).
		Msg("rules imported")
	return out
}

// ImportSnippets merges incoming snippets into existing, remapping their
// rule references through idMapping (the output of ImportRules). A snippet
// that is structurally equal to any existing one — compared with both sides
// resolved against mergedRules, so matching rule content counts even under
// different ids — is skipped as a duplicate.
func ImportSnippets(ctx context.Context, incoming, existing []snippet.Snippet, idMapping map[string]string, mergedRules []snippet.TransformRule) SnippetImport {
	var out SnippetImport

	taken := make(map[string]bool, len(existing))
	for _, s := range existing {
		taken[s.ID] = true
	}

	for _, in := range incoming {
		candidate := in
		candidate.EnabledRuleIDs = remapRuleIDs(in.EnabledRuleIDs, idMapping)

		if isDuplicateSnippet(candidate, existing, mergedRules) {
			out.Skipped++
			out.Outcomes = append(out.Outcomes, SnippetOutcome{Title: in.Title})
			continue
		}

		candidate.ID = snippet.UniqueSnippetID(taken)
		taken[candidate.ID] = true
		out.NewSnippets = append(out.NewSnippets, candidate)
		out.Outcomes = append(out.Outcomes, SnippetOutcome{Title: in.Title, Added: true})
	}

	zerolog.Ctx(ctx).Debug().
		Int("incoming", len(incoming)).
		Int("added", len(out.NewSnippets)).
		Int("skipped", out.Skipped).
		Msg("snippets imported")
	return out
}

func findEqualRule(r snippet.TransformRule, catalog []snippet.TransformRule) (snippet.TransformRule, bool) {
	for _, existing := range catalog {
		if snippet.RuleEqual(r, existing) {
			return existing, true
		}
	}
	return snippet.TransformRule{}, false
}

func isDuplicateSnippet(s snippet.Snippet, existing []snippet.Snippet, rules []snippet.TransformRule) bool {
	// Both sides reference the merged catalog after remapping, so the same
	// catalog is passed for each.
	if rules == nil {
		rules = []snippet.TransformRule{}
	}
	for _, e := range existing {
		if snippet.SnippetEqual(s, e, rules, rules) {
			return true
		}
	}
	return false
}

func remapRuleIDs(ids []string, mapping map[string]string) []string {
	if len(ids) == 0 {
		return nil
	}
	remapped := make([]string, len(ids))
	for i, id := range ids {
		if mapped, ok := mapping[id]; ok {
			remapped[i] = mapped
		} else {
			// Reference into a rule the import did not carry. Kept as-is:
			// unresolved ids are no-ops at render time.
			remapped[i] = id
		}
	}
	return remapped
}
