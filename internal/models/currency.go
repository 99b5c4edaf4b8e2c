package models

import "strings"

// Currency is an entry of the backend currency registry.
type Currency struct {
	Code   string `json:"code" yaml:"code"`
	Name   string `json:"name" yaml:"name"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// NewCurrency is a currency the user asks the backend to create while
// importing. Symbol carries the unresolved token it was proposed for.
type NewCurrency struct {
	Code   string `json:"code" yaml:"code"`
	Name   string `json:"name" yaml:"name"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// Complete reports whether the proposal carries both a code and a name.
func (n NewCurrency) Complete() bool {
	return strings.TrimSpace(n.Code) != "" && strings.TrimSpace(n.Name) != ""
}

// CurrencyRegistry is the ordered, read-only set of currencies known to the
// backend.
type CurrencyRegistry []Currency

// HasCode reports whether code exists in the registry (case-insensitive).
func (r CurrencyRegistry) HasCode(code string) bool {
	_, ok := r.Lookup(code)
	return ok
}

// Lookup returns the registry entry for code (case-insensitive).
func (r CurrencyRegistry) Lookup(code string) (Currency, bool) {
	for _, c := range r {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Currency{}, false
}
