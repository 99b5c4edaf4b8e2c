// Package currency maps free-text currency tokens from an export onto the
// backend currency registry and tracks the user's answers for the tokens
// that could not be matched.
package currency

import (
	"strings"

	"fjacquet/ledger-import/internal/models"
)

// Result is the outcome of automatic resolution. Resolved is keyed by the
// raw token; Unresolved keeps first-appearance order.
type Result struct {
	Resolved   map[string]string `json:"resolved" yaml:"resolved"`
	Unresolved []string          `json:"unresolved" yaml:"unresolved"`
}

// ResolveString matches a single token against the registry. Codes match
// case-insensitively and take precedence over symbols, which must match
// exactly. Blank tokens never resolve.
func ResolveString(raw string, registry models.CurrencyRegistry) (string, bool) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", false
	}

	for _, c := range registry {
		if strings.EqualFold(c.Code, token) {
			return c.Code, true
		}
	}
	for _, c := range registry {
		if c.Symbol == token {
			return c.Code, true
		}
	}
	return "", false
}

// DistinctTokens returns the non-blank currency tokens of rows, trimmed and
// de-duplicated in order of first appearance.
func DistinctTokens(rows []models.RawRow) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, r := range rows {
		token := strings.TrimSpace(r.Currency)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

// Resolve resolves each distinct token once.
func Resolve(tokens []string, registry models.CurrencyRegistry) Result {
	res := Result{Resolved: make(map[string]string)}
	seen := make(map[string]struct{}, len(tokens))
	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}

		if code, ok := ResolveString(token, registry); ok {
			res.Resolved[token] = code
		} else {
			res.Unresolved = append(res.Unresolved, token)
		}
	}
	return res
}

// ResolveRows is Resolve over the distinct tokens of rows.
func ResolveRows(rows []models.RawRow, registry models.CurrencyRegistry) Result {
	return Resolve(DistinctTokens(rows), registry)
}
