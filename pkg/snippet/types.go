package snippet

// Storage keys used for the persisted catalog. The snippet list key predates
// the transform-rule engine, which is why it is still named after the context
// menu entries it feeds.
const (
	KeySnippets = "contextMenus"
	KeyRules    = "transformRules"
)

// Snippet is a clipboard-text template with placeholders, triggered from a
// context menu entry or a keyboard shortcut slot.
type Snippet struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ClipboardText string `json:"clipboardText"`

	// EnabledRuleIDs references TransformRules by id. Order is significant:
	// rules are applied to the page URL in this order. Ids that do not
	// resolve in the current rule catalog are no-ops.
	EnabledRuleIDs []string `json:"enabledRuleIds,omitempty"`

	// Contexts holds the trigger-context tags (e.g. "selection", "all").
	// Compared as a set, not a sequence.
	Contexts []string `json:"contexts,omitempty"`

	// ShortcutNumber maps the snippet to a keyboard shortcut slot (1..4).
	// Zero means no shortcut.
	ShortcutNumber int `json:"shortcutNumber,omitempty"`

	// DeleteQuery strips the query string from the URL before rule
	// application. Legacy: superseded by rules, kept as an independent step.
	DeleteQuery bool `json:"deleteQuery,omitempty"`
}

// TransformRule is a domain-scoped regex find/replace applied to a URL
// before placeholder substitution. Pattern is user-authored and not
// guaranteed to compile.
type TransformRule struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Domain restricts the rule to a hostname (exact or subdomain match).
	// Empty means the rule applies everywhere.
	Domain string `json:"domain,omitempty"`

	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
}

// PageContext is the ephemeral page data captured at trigger time. It is
// built fresh per trigger and never persisted.
type PageContext struct {
	Title          string
	URL            string
	SelectionText  string
	SectionHeading string
}
