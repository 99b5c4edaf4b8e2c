// Package ledger provides the read-only view of the existing ledger that an
// import is reconciled against: currencies, accounts and categories.
package ledger

import (
	"context"

	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/preview"
)

// Snapshot is the ledger state captured for one upload.
type Snapshot struct {
	Currencies models.CurrencyRegistry `json:"currencies" yaml:"currencies"`
	Accounts   []models.Account        `json:"accounts" yaml:"accounts"`
	Categories []models.Category       `json:"categories" yaml:"categories"`
}

// Source loads a fresh snapshot. Implementations must not cache between
// calls, so every upload sees the registry as it is at that moment.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// AccountNames returns the names of all accounts.
func (s *Snapshot) AccountNames() []string {
	names := make([]string, len(s.Accounts))
	for i, a := range s.Accounts {
		names[i] = a.Name
	}
	return names
}

// CategoryNames flattens the category tree into every top-level name,
// every child name and every Parent\Child composite.
func (s *Snapshot) CategoryNames() []string {
	return FlattenCategories(s.Categories)
}

// FlattenCategories flattens a category tree. Only one level of nesting is
// expanded into composites.
func FlattenCategories(categories []models.Category) []string {
	var names []string
	for _, c := range categories {
		names = append(names, c.Name)
		for _, child := range c.Children {
			names = append(names, child.Name, c.Name+models.CategorySeparator+child.Name)
		}
	}
	return names
}

// PreviewLedger adapts the snapshot for the preview engine.
func (s *Snapshot) PreviewLedger() preview.Ledger {
	return preview.Ledger{
		Accounts:   s.AccountNames(),
		Categories: s.CategoryNames(),
	}
}
