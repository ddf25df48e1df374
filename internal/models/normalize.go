package models

import (
	"strings"
)

// corporateSuffixes are stripped during identity normalization so that
// "Forge Global" and "Forge Global Holdings, Inc." compare equal.
var corporateSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"co":           true,
	"company":      true,
	"ltd":          true,
	"limited":      true,
	"llc":          true,
	"lp":           true,
	"llp":          true,
	"plc":          true,
	"holdings":     true,
	"holding":      true,
	"group":        true,
	"sa":           true,
	"nv":           true,
	"ag":           true,
	"gmbh":         true,
	"se":           true,
}

// NormalizeIdentity lowercases a company name, strips punctuation, and
// drops trailing corporate suffix tokens. The result is the canonical form
// used for staging idempotency keys and cross-source identity matching.
func NormalizeIdentity(name string) string {
	tokens := IdentityTokens(name)
	return strings.Join(tokens, " ")
}

// IdentityTokens returns the normalized token list for a company name.
// Deterministic: same input always yields the same tokens.
func IdentityTokens(name string) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '&':
			b.WriteString(" and ")
		default:
			b.WriteByte(' ')
		}
	}

	raw := strings.Fields(b.String())

	// Strip suffix tokens from the tail only; "Holding Company Inc" all
	// goes, but an interior token like "group" in "group ten metals" stays.
	end := len(raw)
	for end > 1 && corporateSuffixes[raw[end-1]] {
		end--
	}

	return raw[:end]
}
