package urlx

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/copysnip/pkg/snippet"
)

// SelectRules resolves enabledRuleIDs against the rule catalog and filters
// the result by domain scope for rawURL. Unresolved ids are skipped
// silently; a domain-scoped rule is dropped with a warning when rawURL does
// not parse to a hostname. The returned order is the order of
// enabledRuleIDs, which is the order the rules must be applied in.
func SelectRules(ctx context.Context, enabledRuleIDs []string, catalog []snippet.TransformRule, rawURL string) []snippet.TransformRule {
	byID := make(map[string]snippet.TransformRule, len(catalog))
	for _, r := range catalog {
		byID[r.ID] = r
	}

	var selected []snippet.TransformRule
	for _, id := range enabledRuleIDs {
		rule, ok := byID[id]
		if !ok {
			continue
		}
		if rule.Domain != "" && !domainMatches(ctx, rawURL, rule.Domain) {
			continue
		}
		selected = append(selected, rule)
	}
	return selected
}

func domainMatches(ctx context.Context, rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		zerolog.Ctx(ctx).Warn().
			Str("url", rawURL).
			Str("domain", domain).
			Msg("cannot parse url for domain-scoped rule, skipping rule")
		return false
	}
	host := strings.ToLower(u.Hostname())
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
