// Package preview reconciles a normalized upload against the existing
// ledger: per-type counts, error count, entities that would be created and
// transfer legs that cannot be paired. Compute is a pure function of its
// inputs and is re-run whenever any of them changes.
package preview

import (
	"strings"

	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/normalizer"
)

// Ledger is the slice of existing ledger state the preview compares with.
// Categories hold bare names as well as Parent\Child composites.
type Ledger struct {
	Accounts   []string
	Categories []string
}

// orderedSet keeps insertion order and ignores repeats.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

// Compute normalizes rows and aggregates them.
func Compute(rows []models.RawRow, sep models.DecimalSeparator, ledger Ledger) models.PreviewStats {
	return ComputeNormalized(normalizer.NormalizeAll(rows, sep), ledger)
}

// ComputeNormalized aggregates already normalized rows. Error rows count
// towards Total and Errors only.
func ComputeNormalized(rows []models.NormalizedRow, ledger Ledger) models.PreviewStats {
	existingAccounts := lowerSet(ledger.Accounts)
	existingCategories := lowerSet(ledger.Categories)
	newAccounts := newOrderedSet()
	newCategories := newOrderedSet()

	stats := models.PreviewStats{Total: len(rows)}
	transferLegs := 0

	for _, row := range rows {
		if row.HasError() {
			stats.Errors++
			continue
		}
		raw := row.Raw

		switch row.RowType {
		case models.RowTypeTransfer:
			transferLegs++
			if !has(existingAccounts, raw.Transfer) {
				newAccounts.add(raw.Transfer)
			}
		case models.RowTypeExpense:
			stats.Expenses++
		default:
			stats.Incomes++
		}

		if !has(existingAccounts, raw.Account) {
			newAccounts.add(raw.Account)
		}
		if IsNewCategory(raw.Category, existingCategories) {
			newCategories.add(raw.Category)
		}
	}

	stats.Transfers = transferLegs / 2
	stats.NewAccounts = newAccounts.items
	stats.NewCategories = newCategories.items
	_, unpaired := PairTransfers(rows)
	stats.UnpairedTransfers = unpaired
	return stats
}

func has(set map[string]struct{}, name string) bool {
	_, ok := set[strings.ToLower(name)]
	return ok
}

// IsNewCategory reports whether a category token would be created. existing
// must hold lower-cased names. A qualified name is new whenever its exact
// form is absent, even if the parent exists.
func IsNewCategory(category string, existing map[string]struct{}) bool {
	if category == "" || has(existing, category) {
		return false
	}
	parent, _, qualified := strings.Cut(category, models.CategorySeparator)
	return !has(existing, parent) || qualified
}
