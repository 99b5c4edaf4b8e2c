package currency

import (
	"fmt"
	"strings"

	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/parsererror"
)

// Resolutions holds the user's answers for unresolved tokens. Each token has
// at most one answer: an existing registry code or a new-currency proposal.
type Resolutions struct {
	unresolved []string
	registry   models.CurrencyRegistry
	mapping    map[string]string
	proposals  map[string]models.NewCurrency
}

// NewResolutions starts an empty answer set for the given unresolved tokens.
func NewResolutions(unresolved []string, registry models.CurrencyRegistry) *Resolutions {
	return &Resolutions{
		unresolved: append([]string(nil), unresolved...),
		registry:   registry,
		mapping:    make(map[string]string),
		proposals:  make(map[string]models.NewCurrency),
	}
}

// Tokens returns the tokens awaiting an answer.
func (r *Resolutions) Tokens() []string {
	return append([]string(nil), r.unresolved...)
}

func (r *Resolutions) isPending(token string) bool {
	for _, t := range r.unresolved {
		if t == token {
			return true
		}
	}
	return false
}

// MapExisting answers token with an existing registry code and drops any
// proposal for it.
func (r *Resolutions) MapExisting(token, code string) error {
	if !r.isPending(token) {
		return fmt.Errorf("currency token %q is not awaiting resolution", token)
	}
	c, ok := r.registry.Lookup(strings.TrimSpace(code))
	if !ok {
		return fmt.Errorf("currency code %q is not in the registry", code)
	}
	r.mapping[token] = c.Code
	delete(r.proposals, token)
	return nil
}

// ProposeNew answers token with a currency to create. The code is
// upper-cased, must be three letters and must not already be in the
// registry or proposed for another token. The symbol is always the token
// itself. Any existing mapping for the token is dropped.
func (r *Resolutions) ProposeNew(token, code, name string) error {
	if !r.isPending(token) {
		return fmt.Errorf("currency token %q is not awaiting resolution", token)
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if !isCurrencyCode(code) {
		return fmt.Errorf("currency code %q must be 3 letters", code)
	}
	if r.registry.HasCode(code) {
		return fmt.Errorf("currency code %s already exists, map the token to it instead", code)
	}
	for other, p := range r.proposals {
		if other != token && p.Code == code {
			return fmt.Errorf("currency code %s is already proposed for %q", code, other)
		}
	}
	r.proposals[token] = models.NewCurrency{
		Code:   code,
		Name:   strings.TrimSpace(name),
		Symbol: token,
	}
	delete(r.mapping, token)
	return nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// IsResolved reports whether token has a mapped code or a complete proposal.
func (r *Resolutions) IsResolved(token string) bool {
	if r.mapping[token] != "" {
		return true
	}
	p, ok := r.proposals[token]
	return ok && p.Complete()
}

// Pending lists the tokens still lacking a usable answer, in order.
func (r *Resolutions) Pending() []string {
	var pending []string
	for _, t := range r.unresolved {
		if !r.IsResolved(t) {
			pending = append(pending, t)
		}
	}
	return pending
}

// Gate returns an UnresolvedCurrencyError while any token is pending.
func (r *Resolutions) Gate() error {
	if pending := r.Pending(); len(pending) > 0 {
		return &parsererror.UnresolvedCurrencyError{Tokens: pending}
	}
	return nil
}

// Mapping returns the user-supplied token to code mapping.
func (r *Resolutions) Mapping() map[string]string {
	out := make(map[string]string, len(r.mapping))
	for k, v := range r.mapping {
		out[k] = v
	}
	return out
}

// NewCurrencies returns the complete proposals in token order.
func (r *Resolutions) NewCurrencies() []models.NewCurrency {
	var out []models.NewCurrency
	for _, t := range r.unresolved {
		if p, ok := r.proposals[t]; ok && p.Complete() && r.mapping[t] == "" {
			out = append(out, p)
		}
	}
	return out
}

// MergeMapping combines automatic matches with user answers. User answers
// win on conflict.
func MergeMapping(auto, user map[string]string) map[string]string {
	out := make(map[string]string, len(auto)+len(user))
	for k, v := range auto {
		out[k] = v
	}
	for k, v := range user {
		out[k] = v
	}
	return out
}
