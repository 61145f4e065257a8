package urlx

import (
	"context"
	"net/url"
	"regexp"

	"github.com/rs/zerolog"
)

// Transform applies a single user-authored regex rewrite to rawURL. The
// pattern is compiled case-insensitively and only the first match is
// replaced, with the replacement template supporting $1..$99 capture group
// references, $& for the whole match and $$ for a literal dollar. Every
// failure mode is a pass-through: an empty pattern, a pattern that does not
// compile, or a pattern that does not match all return rawURL unchanged.
// Transform never panics and never returns an error.
func Transform(ctx context.Context, rawURL, pattern, replacement string) string {
	if pattern == "" {
		return rawURL
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("pattern", pattern).
			Msg("invalid transform pattern, skipping")
		return rawURL
	}

	loc := re.FindStringSubmatchIndex(rawURL)
	if loc == nil {
		// Rule not applicable to this URL. Normal outcome, not a failure.
		return rawURL
	}

	expanded := expandTemplate(replacement, rawURL, loc, re.NumSubexp())
	return rawURL[:loc[0]] + expanded + rawURL[loc[1]:]
}

// expandTemplate expands a replacement template against the submatch index
// pairs of a single match. Group references that do not exist are kept
// literally, matching the replacement semantics rule authors expect.
func expandTemplate(template, src string, loc []int, groups int) string {
	group := func(n int) string {
		if 2*n+1 >= len(loc) || loc[2*n] < 0 {
			return ""
		}
		return src[loc[2*n]:loc[2*n+1]]
	}

	var out []byte
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			out = append(out, c)
			continue
		}
		next := template[i+1]
		switch {
		case next == '$':
			out = append(out, '$')
			i++
		case next == '&':
			out = append(out, group(0)...)
			i++
		case next >= '0' && next <= '9':
			n := int(next - '0')
			width := 1
			if i+2 < len(template) && template[i+2] >= '0' && template[i+2] <= '9' {
				two := n*10 + int(template[i+2]-'0')
				if two <= groups {
					n = two
					width = 2
				}
			}
			if n >= 1 && n <= groups {
				out = append(out, group(n)...)
				i += width
			} else {
				out = append(out, '$')
			}
		default:
			out = append(out, '$')
		}
	}
	return string(out)
}

// StripQuery removes the query string component from rawURL, leaving the
// rest of the URL intact. An unparsable URL is returned unchanged.
func StripQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	u.ForceQuery = false
	return u.String()
}

// ExtractSectionHeading returns the percent-decoded fragment of rawURL
// without the leading '#'. A missing or empty fragment, or a URL that does
// not parse (including a fragment that fails to decode), yields "".
func ExtractSectionHeading(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Fragment
}
